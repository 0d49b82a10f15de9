// Package openai implements the adapter for OpenAI-compatible chat
// completion APIs. A single adapter serves every provider that speaks this
// wire format (OpenAI, Grok, DeepSeek, OpenRouter, local runtimes); only the
// base URL and API key differ per provider.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/sjson"

	"github.com/JulesLiu390/PetGPT-sub001/pkg/llm"
)

// defaultBaseURLs maps provider keys to their API roots. The "/v1" path
// segment is appended during resolution, not stored here.
var defaultBaseURLs = map[string]string{
	"openai":     "https://api.openai.com",
	"grok":       "https://api.x.ai",
	"deepseek":   "https://api.deepseek.com",
	"openrouter": "https://openrouter.ai/api",
	"local":      "http://localhost:11434",
}

// ResolveBaseURL produces the effective API root for a call. An empty or
// literal "default" override selects the provider's entry from the default
// table. "/v1" is appended unless the URL already ends with it, so overrides
// pointing at a bare host and overrides that already include the version
// segment both work.
func ResolveBaseURL(provider, override string) string {
	base := strings.TrimSpace(override)
	if base == "" || base == "default" {
		var ok bool
		base, ok = defaultBaseURLs[provider]
		if !ok {
			base = defaultBaseURLs["openai"]
		}
	}
	base = strings.TrimRight(base, "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return base
}

// Adapter translates canonical messages to and from the OpenAI-compatible
// chat completions wire format
type Adapter struct {
	files  llm.FileReader
	logger zerolog.Logger
}

// New creates an OpenAI-compatible adapter
func New(cfg llm.AdapterConfig) (llm.Adapter, error) {
	files := cfg.Files
	if files == nil {
		files = llm.NewOSFileReader()
	}
	return &Adapter{files: files, logger: cfg.Logger}, nil
}

func (a *Adapter) Name() llm.APIFormat {
	return llm.APIFormatOpenAICompatible
}

func (a *Adapter) Capabilities() llm.Capabilities {
	return llm.Capabilities{
		Image:              true,
		SupportsInlineData: true,
	}
}

// chatRequest is the request body sent to /chat/completions. A local struct
// instead of the library's ChatCompletionRequest because Stream must always
// be serialized explicitly and sampling knobs are only sent when the caller
// set them.
type chatRequest struct {
	Model          string                         `json:"model"`
	Messages       []openai.ChatCompletionMessage `json:"messages"`
	Temperature    *float32                       `json:"temperature,omitempty"`
	MaxTokens      *int                           `json:"max_tokens,omitempty"`
	Stream         bool                           `json:"stream"`
	Tools          []openai.Tool                  `json:"tools,omitempty"`
	ToolChoice     any                            `json:"tool_choice,omitempty"`
	ResponseFormat json.RawMessage                `json:"response_format,omitempty"`
}

// BuildRequest converts a ProviderRequest into the exact chat completions
// HTTP request
func (a *Adapter) BuildRequest(ctx context.Context, req *llm.ProviderRequest) (*llm.RequestEnvelope, error) {
	if req.Model == "" {
		return nil, llm.NewValidationError("missing_model", "model is required")
	}

	body := chatRequest{
		Model:       req.Model,
		Messages:    a.buildMessages(ctx, req),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      req.Stream,
	}

	if len(req.Tools) > 0 {
		body.Tools = buildTools(req.Tools)
		body.ToolChoice = req.ToolChoice
		if body.ToolChoice == "" {
			body.ToolChoice = "auto"
		}
	}

	if req.Format != nil && req.Format.Type != llm.ResponseFormatText {
		raw, err := buildResponseFormat(req.Format)
		if err != nil {
			return nil, err
		}
		body.ResponseFormat = raw
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, llm.NewValidationError("marshal_request", "failed to encode request: %v", err)
	}

	return &llm.RequestEnvelope{
		Endpoint: ResolveBaseURL(req.Provider, req.BaseURL) + "/chat/completions",
		Headers: map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + req.APIKey,
		},
		Body: payload,
	}, nil
}

func (a *Adapter) buildMessages(ctx context.Context, req *llm.ProviderRequest) []openai.ChatCompletionMessage {
	caps := llm.CapabilitiesForModel(llm.APIFormatOpenAICompatible, req.Model, a.Capabilities())

	out := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		out = append(out, a.buildMessage(ctx, msg, caps))
	}
	return out
}

func (a *Adapter) buildMessage(ctx context.Context, msg llm.Message, caps llm.Capabilities) openai.ChatCompletionMessage {
	wire := openai.ChatCompletionMessage{Role: string(msg.Role)}

	if msg.Role == llm.RoleTool {
		wire.ToolCallID = msg.ToolCallID
		wire.Content = msg.JoinedText("\n")
		return wire
	}

	for _, tc := range msg.ToolCalls {
		wire.ToolCalls = append(wire.ToolCalls, openai.ToolCall{
			ID:   tc.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      tc.Name,
				Arguments: tc.ArgumentsJSON(),
			},
		})
	}

	parts := a.buildParts(ctx, msg, caps)
	if len(parts) == 1 && parts[0].Type == openai.ChatMessagePartTypeText {
		// Single text part collapses to the plain string form, which every
		// OpenAI-compatible server accepts.
		wire.Content = parts[0].Text
		return wire
	}
	if len(parts) == 0 {
		if len(wire.ToolCalls) == 0 {
			wire.Content = " "
		}
		return wire
	}
	wire.MultiContent = parts
	return wire
}

func (a *Adapter) buildParts(ctx context.Context, msg llm.Message, caps llm.Capabilities) []openai.ChatMessagePart {
	parts := make([]openai.ChatMessagePart, 0, len(msg.Content))
	for _, content := range msg.Content {
		switch c := content.(type) {
		case *llm.TextContent:
			parts = append(parts, textPart(c.Text))

		case *llm.ImageContent:
			if !caps.Image {
				parts = append(parts, textPart(attachmentText("image", c.MimeType)))
				continue
			}
			url, err := a.resolveImageURL(ctx, c)
			if err != nil {
				a.logger.Warn().Err(err).Str("url", c.URL).Msg("image unreadable, degrading to text")
				parts = append(parts, textPart(attachmentText("image", c.MimeType)))
				continue
			}
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: url},
			})

		case *llm.VideoContent:
			parts = append(parts, textPart(attachmentText(c.DisplayName(), c.MimeType)))
		case *llm.AudioContent:
			parts = append(parts, textPart(attachmentText(c.DisplayName(), c.MimeType)))
		case *llm.FileContent:
			parts = append(parts, textPart(attachmentText(c.DisplayName(), c.MimeType)))
		}
	}
	return parts
}

// resolveImageURL passes data URIs and remote URLs through untouched and
// reads local paths into data URIs
func (a *Adapter) resolveImageURL(ctx context.Context, img *llm.ImageContent) (string, error) {
	if llm.IsDataURI(img.URL) || llm.IsRemoteURL(img.URL) {
		return img.URL, nil
	}
	return a.files.ReadDataURI(ctx, img.URL)
}

func textPart(text string) openai.ChatMessagePart {
	return openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: text}
}

func attachmentText(name, mimeType string) string {
	return fmt.Sprintf("[Attachment: %s (%s)]", name, mimeType)
}

func buildTools(tools []llm.Tool) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
			},
		})
	}
	return out
}

// buildResponseFormat encodes the response_format body field. Schema formats
// get strict mode switched on and every object schema closed, which the
// OpenAI structured-outputs endpoint requires.
func buildResponseFormat(format *llm.ResponseFormat) (json.RawMessage, error) {
	raw, err := json.Marshal(format)
	if err != nil {
		return nil, llm.NewValidationError("marshal_response_format", "failed to encode response format: %v", err)
	}
	if format.Type != llm.ResponseFormatJSONSchema || format.JSONSchema == nil {
		return raw, nil
	}

	raw, err = sjson.SetBytes(raw, "json_schema.strict", true)
	if err != nil {
		return nil, llm.NewValidationError("marshal_response_format", "failed to set strict flag: %v", err)
	}

	schema, err := json.Marshal(format.JSONSchema.Schema)
	if err != nil {
		return nil, llm.NewValidationError("marshal_response_format", "failed to encode schema: %v", err)
	}
	closed, err := closeObjectSchemas(schema)
	if err != nil {
		return nil, llm.NewValidationError("marshal_response_format", "invalid schema: %v", err)
	}
	raw, err = sjson.SetRawBytes(raw, "json_schema.schema", closed)
	if err != nil {
		return nil, llm.NewValidationError("marshal_response_format", "failed to patch schema: %v", err)
	}
	return raw, nil
}

// closeObjectSchemas sets additionalProperties:false on every object schema
// in the tree that does not already declare it
func closeObjectSchemas(schema []byte) ([]byte, error) {
	var node any
	if err := json.Unmarshal(schema, &node); err != nil {
		return nil, err
	}
	closeObjectNode(node)
	return json.Marshal(node)
}

func closeObjectNode(node any) {
	switch n := node.(type) {
	case map[string]any:
		if t, _ := n["type"].(string); t == "object" {
			if _, exists := n["additionalProperties"]; !exists {
				n["additionalProperties"] = false
			}
		}
		for _, v := range n {
			closeObjectNode(v)
		}
	case []any:
		for _, v := range n {
			closeObjectNode(v)
		}
	}
}
