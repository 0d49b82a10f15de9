package gemini

import (
	"encoding/json"
	"fmt"
)

// The generateContent wire format. Request field names follow what the API
// actually accepts: snake_case for contents and tool blocks, camelCase inside
// generationConfig. Parts are kept as raw JSON so functionCall parts received
// from the API can be replayed into the conversation byte-for-byte.

type wireContent struct {
	Role  string            `json:"role,omitempty"`
	Parts []json.RawMessage `json:"parts"`
}

type generateRequest struct {
	Contents          []wireContent     `json:"contents"`
	SystemInstruction *wireContent      `json:"system_instruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
	Tools             []wireTools       `json:"tools,omitempty"`
	ToolConfig        *toolConfig       `json:"tool_config,omitempty"`
}

type generationConfig struct {
	Temperature      *float32 `json:"temperature,omitempty"`
	MaxOutputTokens  *int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
	ResponseSchema   any      `json:"responseSchema,omitempty"`
}

type wireTools struct {
	FunctionDeclarations []functionDeclaration `json:"function_declarations"`
}

type functionDeclaration struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

type toolConfig struct {
	FunctionCallingConfig functionCallingConfig `json:"function_calling_config"`
}

type functionCallingConfig struct {
	Mode string `json:"mode"`
}

// Response side. Candidate parts stay raw for the same replay reason.

type generateResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback"`
	UsageMetadata  *usageMetadata  `json:"usageMetadata"`
}

type candidate struct {
	Content      wireContent `json:"content"`
	FinishReason string      `json:"finishReason"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// responsePart probes the variants a candidate part can carry
type responsePart struct {
	Text         string        `json:"text"`
	FunctionCall *functionCall `json:"functionCall"`
}

type functionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

func textPart(text string) json.RawMessage {
	raw, _ := json.Marshal(map[string]string{"text": text})
	return raw
}

func inlineDataPart(mimeType, base64Data string) json.RawMessage {
	raw, _ := json.Marshal(map[string]any{
		"inline_data": map[string]string{
			"mime_type": mimeType,
			"data":      base64Data,
		},
	})
	return raw
}

func functionCallPart(name string, args map[string]any) json.RawMessage {
	if args == nil {
		args = map[string]any{}
	}
	raw, _ := json.Marshal(map[string]any{
		"functionCall": map[string]any{
			"name": name,
			"args": args,
		},
	})
	return raw
}

// functionResponsePart wraps a tool result for replay. Plain-text results are
// wrapped in a {"result": ...} object because the API requires an object
// response body.
func functionResponsePart(name, result string) json.RawMessage {
	var response any
	if json.Valid([]byte(result)) && len(result) > 0 && (result[0] == '{') {
		response = json.RawMessage(result)
	} else {
		response = map[string]string{"result": result}
	}
	raw, _ := json.Marshal(map[string]any{
		"functionResponse": map[string]any{
			"name":     name,
			"response": response,
		},
	})
	return raw
}

// fileTooLargeText is the fallback for attachments over the inline ceiling
func fileTooLargeText(name string) string {
	return fmt.Sprintf("[File too large: %s]", name)
}
