// Tool and tool call types and functionality
package llm

import (
	"encoding/json"
)

// MetadataActiveToolLoop is the message metadata key marking a message as part
// of the currently active tool-calling loop. Messages carrying this flag keep
// their provider continuation metadata intact when a request is rebuilt;
// unflagged historical tool-call messages are sanitized out for providers
// that reject stale continuation tokens.
const MetadataActiveToolLoop = "active_tool_loop"

// Tool represents a function tool that can be called by the LLM
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction defines the function specification for a tool
type ToolFunction struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  interface{} `json:"parameters"`
}

// NewFunctionTool creates a function tool declaration
func NewFunctionTool(name, description string, parameters interface{}) Tool {
	return Tool{
		Type: "function",
		Function: ToolFunction{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// ToolCall represents a tool call made by the LLM.
//
// ProviderMetadata carries whatever continuation data the provider attached
// to the call (for Gemini, the entire original functionCall part including
// its signature). It is opaque to this layer and must be echoed back
// unmodified when the call is resubmitted in a later turn of the active tool
// loop. Calls replayed from persisted history without it are sanitized out by
// the adapters that require it.
type ToolCall struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Arguments        map[string]any  `json:"arguments,omitempty"`
	ProviderMetadata json.RawMessage `json:"provider_metadata,omitempty"`
}

// ArgumentsJSON renders the call arguments as a JSON object string
func (t ToolCall) ArgumentsJSON() string {
	if len(t.Arguments) == 0 {
		return "{}"
	}
	data, err := json.Marshal(t.Arguments)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// HasProviderMetadata reports whether the call still carries its provider
// continuation metadata
func (t ToolCall) HasProviderMetadata() bool {
	return len(t.ProviderMetadata) > 0
}

// DeepCopy creates a deep copy of the ToolCall
func (t ToolCall) DeepCopy() ToolCall {
	cp := ToolCall{
		ID:   t.ID,
		Name: t.Name,
	}
	if len(t.Arguments) > 0 {
		cp.Arguments = make(map[string]any, len(t.Arguments))
		for k, v := range t.Arguments {
			cp.Arguments[k] = deepCopyValue(v)
		}
	}
	if len(t.ProviderMetadata) > 0 {
		cp.ProviderMetadata = make(json.RawMessage, len(t.ProviderMetadata))
		copy(cp.ProviderMetadata, t.ProviderMetadata)
	}
	return cp
}

// ParseToolArguments decodes a provider's JSON-encoded argument string into a
// map. Malformed argument strings yield an empty map rather than an error so
// a single bad call does not poison the whole response.
func ParseToolArguments(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{}
	}
	return args
}

// ToolCallDelta represents an incremental tool call update from a stream.
// OpenAI-style providers stream the argument string in fragments keyed by
// Index; Gemini emits whole calls, which arrive as complete ToolCalls on the
// StreamChunk instead.
type ToolCallDelta struct {
	Index     int    `json:"index"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// MarkActiveToolLoop flags the message as part of the currently active
// tool-calling loop
func (m *Message) MarkActiveToolLoop() {
	m.SetMetadata(MetadataActiveToolLoop, true)
}

// InActiveToolLoop reports whether the message is flagged as part of the
// currently active tool-calling loop
func (m Message) InActiveToolLoop() bool {
	v, ok := m.GetMetadata(MetadataActiveToolLoop)
	if !ok {
		return false
	}
	flag, ok := v.(bool)
	return ok && flag
}
