// Request and response envelopes shared by all adapters
package llm

import (
	"encoding/json"
	"strings"
)

// APIFormat identifies the wire protocol an adapter speaks
type APIFormat string

const (
	APIFormatOpenAICompatible APIFormat = "openai_compatible"
	APIFormatGeminiOfficial   APIFormat = "gemini_official"
)

// ParseAPIFormat maps a configured format string onto an APIFormat.
// Unknown strings default to the OpenAI-compatible format, which is what the
// vast majority of third-party endpoints speak.
func ParseAPIFormat(s string) APIFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gemini_official", "gemini":
		return APIFormatGeminiOfficial
	default:
		return APIFormatOpenAICompatible
	}
}

// Finish reasons reported on responses and terminal stream chunks
const (
	FinishReasonStop      = "stop"
	FinishReasonLength    = "length"
	FinishReasonToolCalls = "tool_calls"
	FinishReasonSafety    = "safety"
	FinishReasonAborted   = "aborted"
	FinishReasonError     = "error"
)

// RequestEnvelope is a fully built, provider-specific HTTP request.
// It is opaque to the dispatcher: endpoint, headers and body are exactly
// what goes on the wire.
type RequestEnvelope struct {
	Endpoint string
	Headers  map[string]string
	Body     []byte
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the canonical result of a call, blocking or streaming.
// Runtime failures are carried inside the response (Err set, Content holding
// a renderable "Error: ..." string) rather than returned as Go errors, so UI
// callers can always display something. An aborted stream is not a failure:
// Aborted is true and Content holds the text accumulated before cancellation.
type Response struct {
	Content      string          `json:"content"`
	ToolCalls    []ToolCall      `json:"tool_calls,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"`
	Usage        Usage           `json:"usage"`
	Aborted      bool            `json:"aborted,omitempty"`
	Err          *Error          `json:"error,omitempty"`
	Raw          json.RawMessage `json:"-"`
}

// Failed reports whether the response carries a terminal error
func (r *Response) Failed() bool {
	return r != nil && r.Err != nil
}

// RequiresToolExecution reports whether the model asked for tools to run
// before the turn can continue
func (r *Response) RequiresToolExecution() bool {
	return r != nil && len(r.ToolCalls) > 0
}

// ErrorResponse builds a Response carrying a terminal error
func ErrorResponse(err *Error) *Response {
	return &Response{
		Content:      "Error: " + err.Message,
		FinishReason: FinishReasonError,
		Err:          err,
	}
}

// StreamChunk is one decoded increment of a streaming response.
// Once Done is observed for a request no further chunks are emitted for it.
type StreamChunk struct {
	DeltaText      string          `json:"delta_text,omitempty"`
	DeltaToolCalls []ToolCallDelta `json:"delta_tool_calls,omitempty"`
	ToolCalls      []ToolCall      `json:"tool_calls,omitempty"`
	FinishReason   string          `json:"finish_reason,omitempty"`
	Done           bool            `json:"done,omitempty"`
	Usage          *Usage          `json:"usage,omitempty"`
	Err            *Error          `json:"error,omitempty"`
}
