// Package gemini implements the adapter for the Google Gemini official API
// (generateContent / streamGenerateContent). Unlike the OpenAI-compatible
// format this one is single-provider, authenticates through a query
// parameter, and accepts inline media up to a hard size ceiling.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/JulesLiu390/PetGPT-sub001/pkg/llm"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"

	// maxInlineBytes is the API ceiling for inline_data payloads
	maxInlineBytes = 20 * 1024 * 1024

	defaultTemperature     = float32(0.7)
	defaultMaxOutputTokens = 8192
)

// ResolveBaseURL produces the effective API root. The "/v1beta" segment is
// appended unless the override already carries a version segment somewhere
// in its path, so proxies that remap the path keep working.
func ResolveBaseURL(override string) string {
	base := strings.TrimSpace(override)
	if base == "" || base == "default" {
		base = defaultBaseURL
	}
	base = strings.TrimRight(base, "/")
	if !strings.Contains(base, "/v1beta") {
		base += "/v1beta"
	}
	return base
}

// Adapter translates canonical messages to and from the Gemini wire format
type Adapter struct {
	files  llm.FileReader
	logger zerolog.Logger
}

// New creates a Gemini adapter
func New(cfg llm.AdapterConfig) (llm.Adapter, error) {
	files := cfg.Files
	if files == nil {
		files = llm.NewOSFileReader()
	}
	return &Adapter{files: files, logger: cfg.Logger}, nil
}

func (a *Adapter) Name() llm.APIFormat {
	return llm.APIFormatGeminiOfficial
}

func (a *Adapter) Capabilities() llm.Capabilities {
	return llm.Capabilities{
		Image:              true,
		Video:              true,
		Audio:              true,
		PDF:                true,
		SupportsInlineData: true,
		MaxInlineBytes:     maxInlineBytes,
	}
}

// BuildRequest converts a ProviderRequest into a generateContent or
// streamGenerateContent HTTP request
func (a *Adapter) BuildRequest(ctx context.Context, req *llm.ProviderRequest) (*llm.RequestEnvelope, error) {
	if req.Model == "" {
		return nil, llm.NewValidationError("missing_model", "model is required")
	}

	history := sanitizeHistory(req.Messages)

	body := generateRequest{
		GenerationConfig: buildGenerationConfig(req),
	}

	var systemTexts []string
	for _, msg := range history {
		if msg.Role == llm.RoleSystem {
			if text := msg.JoinedText("\n"); text != "" {
				systemTexts = append(systemTexts, text)
			}
			continue
		}
		body.Contents = append(body.Contents, a.buildContent(ctx, msg, history))
	}
	if len(systemTexts) > 0 {
		body.SystemInstruction = &wireContent{
			Parts: []json.RawMessage{textPart(strings.Join(systemTexts, "\n"))},
		}
	}

	if len(req.Tools) > 0 {
		body.Tools = []wireTools{{FunctionDeclarations: buildFunctionDeclarations(req.Tools)}}
		body.ToolConfig = &toolConfig{
			FunctionCallingConfig: functionCallingConfig{Mode: mapToolChoice(req.ToolChoice)},
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, llm.NewValidationError("marshal_request", "failed to encode request: %v", err)
	}

	action := "generateContent"
	query := "?key=" + req.APIKey
	if req.Stream {
		action = "streamGenerateContent"
		query = "?alt=sse&key=" + req.APIKey
	}

	return &llm.RequestEnvelope{
		Endpoint: fmt.Sprintf("%s/models/%s:%s%s", ResolveBaseURL(req.BaseURL), req.Model, action, query),
		Headers:  map[string]string{"Content-Type": "application/json"},
		Body:     payload,
	}, nil
}

// buildContent converts one canonical message into a wire content block.
// Assistant maps to role "model"; tool results ride under role "user" as
// functionResponse parts, which is what the API expects for replayed loops.
func (a *Adapter) buildContent(ctx context.Context, msg llm.Message, history []llm.Message) wireContent {
	if msg.Role == llm.RoleTool {
		return wireContent{
			Role: "user",
			Parts: []json.RawMessage{
				functionResponsePart(functionNameFor(history, msg.ToolCallID), msg.JoinedText("\n")),
			},
		}
	}

	role := "user"
	if msg.Role == llm.RoleAssistant {
		role = "model"
	}

	parts := make([]json.RawMessage, 0, len(msg.Content)+len(msg.ToolCalls))
	for _, content := range msg.Content {
		parts = append(parts, a.buildPart(ctx, content))
	}
	for _, tc := range msg.ToolCalls {
		if tc.HasProviderMetadata() {
			// Replay the part exactly as the API produced it.
			parts = append(parts, json.RawMessage(tc.ProviderMetadata))
			continue
		}
		parts = append(parts, functionCallPart(tc.Name, tc.Arguments))
	}
	if len(parts) == 0 {
		parts = append(parts, textPart(" "))
	}
	return wireContent{Role: role, Parts: parts}
}

// buildPart converts one content part, resolving media to inline_data where
// possible and degrading to a text marker where not. Degrading is never an
// error; the conversation must still go through with whatever context
// remains.
func (a *Adapter) buildPart(ctx context.Context, content llm.MessageContent) json.RawMessage {
	switch c := content.(type) {
	case *llm.TextContent:
		return textPart(c.Text)
	case *llm.ImageContent:
		return a.buildMediaPart(ctx, c.URL, c.MimeType, "image")
	case *llm.VideoContent:
		return a.buildMediaPart(ctx, c.URL, c.MimeType, c.DisplayName())
	case *llm.AudioContent:
		return a.buildMediaPart(ctx, c.URL, c.MimeType, c.DisplayName())
	case *llm.FileContent:
		// Word-processor documents are not accepted inline; they should have
		// been expanded to text upstream.
		if llm.IsWordProcessorMimeType(c.MimeType) {
			return textPart(attachmentText(c.DisplayName(), c.MimeType))
		}
		return a.buildMediaPart(ctx, c.URL, c.MimeType, c.DisplayName())
	default:
		return textPart("")
	}
}

func (a *Adapter) buildMediaPart(ctx context.Context, url, mimeType, name string) json.RawMessage {
	if llm.IsRemoteURL(url) {
		return textPart(attachmentText(name, mimeType))
	}

	dataURI := url
	if !llm.IsDataURI(url) {
		var err error
		dataURI, err = a.files.ReadDataURI(ctx, url)
		if err != nil {
			a.logger.Warn().Err(err).Str("url", url).Msg("attachment unreadable, degrading to text")
			return textPart(attachmentText(name, mimeType))
		}
	}

	if llm.DataURIDecodedSize(dataURI) > maxInlineBytes {
		return textPart(fileTooLargeText(name))
	}

	mime, payload, err := llm.SplitDataURI(dataURI)
	if err != nil {
		a.logger.Warn().Err(err).Str("url", url).Msg("malformed data URI, degrading to text")
		return textPart(attachmentText(name, mimeType))
	}
	if mimeType != "" && mimeType != llm.DefaultMimeType {
		mime = mimeType
	}
	return inlineDataPart(mime, payload)
}

func attachmentText(name, mimeType string) string {
	return fmt.Sprintf("[Attachment: %s (%s)]", name, mimeType)
}

func buildGenerationConfig(req *llm.ProviderRequest) *generationConfig {
	temperature := defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := defaultMaxOutputTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	cfg := &generationConfig{
		Temperature:     &temperature,
		MaxOutputTokens: &maxTokens,
	}
	if req.Format != nil && req.Format.Type != llm.ResponseFormatText {
		cfg.ResponseMimeType = "application/json"
		if req.Format.Type == llm.ResponseFormatJSONSchema && req.Format.JSONSchema != nil {
			cfg.ResponseSchema = convertSchema(req.Format.JSONSchema.Schema)
		}
	}
	return cfg
}

func buildFunctionDeclarations(tools []llm.Tool) []functionDeclaration {
	out := make([]functionDeclaration, 0, len(tools))
	for _, t := range tools {
		out = append(out, functionDeclaration{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  convertSchema(t.Function.Parameters),
		})
	}
	return out
}

// mapToolChoice maps the canonical tool-choice strings onto the API's
// function calling modes
func mapToolChoice(choice string) string {
	switch choice {
	case "none":
		return "NONE"
	case "any", "required":
		return "ANY"
	default:
		return "AUTO"
	}
}

// convertSchema rewrites a JSON Schema into the subset the API accepts:
// uppercase type names and none of the draft keywords it rejects
func convertSchema(schema any) any {
	raw, err := json.Marshal(schema)
	if err != nil {
		return schema
	}
	var node any
	if err := json.Unmarshal(raw, &node); err != nil {
		return schema
	}
	return convertSchemaNode(node)
}

func convertSchemaNode(node any) any {
	switch n := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			switch k {
			case "additionalProperties", "$schema", "title", "description":
				continue
			case "type":
				if t, ok := v.(string); ok {
					out[k] = strings.ToUpper(t)
					continue
				}
			case "properties":
				// Keys here are property names, not schema keywords; only
				// their values are schemas.
				if props, ok := v.(map[string]any); ok {
					conv := make(map[string]any, len(props))
					for name, sub := range props {
						conv[name] = convertSchemaNode(sub)
					}
					out[k] = conv
					continue
				}
			}
			out[k] = convertSchemaNode(v)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			out[i] = convertSchemaNode(v)
		}
		return out
	default:
		return node
	}
}
