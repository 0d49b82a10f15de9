// Message types and functionality
package llm

import (
	"encoding/json"
	"fmt"
)

// Message represents a single chat message with multi-modal content support
type Message struct {
	Role       MessageRole      `json:"role"`
	Content    []MessageContent `json:"content"`
	ToolCalls  []ToolCall       `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	Metadata   map[string]any   `json:"metadata,omitempty"`
}

// MessageRole defines the role of a message sender
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// IsValidRole checks if the given role is part of the closed role set
func IsValidRole(role MessageRole) bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	default:
		return false
	}
}

// NewTextMessage creates a new Message with a single TextContent part
func NewTextMessage(role MessageRole, text string) Message {
	return Message{
		Role:    role,
		Content: []MessageContent{NewTextContent(text)},
	}
}

// GetText extracts text from the first TextContent item.
// Returns empty string if no TextContent is found.
func (m Message) GetText() string {
	for _, content := range m.Content {
		if textContent, ok := content.(*TextContent); ok {
			return textContent.GetText()
		}
	}
	return ""
}

// JoinedText concatenates all TextContent parts with the given separator
func (m Message) JoinedText(sep string) string {
	var out string
	first := true
	for _, content := range m.Content {
		textContent, ok := content.(*TextContent)
		if !ok {
			continue
		}
		if !first {
			out += sep
		}
		out += textContent.GetText()
		first = false
	}
	return out
}

// SetText sets the message content to a single TextContent item,
// replacing all existing content
func (m *Message) SetText(text string) {
	m.Content = []MessageContent{NewTextContent(text)}
}

// IsTextOnly checks if the message contains only text content
func (m Message) IsTextOnly() bool {
	if len(m.Content) == 0 {
		return false
	}
	for _, content := range m.Content {
		if content.Type() != MessageTypeText {
			return false
		}
	}
	return true
}

// GetContentByType returns all content items of the specified type
func (m Message) GetContentByType(messageType MessageType) []MessageContent {
	var result []MessageContent
	for _, content := range m.Content {
		if content.Type() == messageType {
			result = append(result, content)
		}
	}
	return result
}

// HasContentType checks if the message contains any content of the specified type
func (m Message) HasContentType(messageType MessageType) bool {
	for _, content := range m.Content {
		if content.Type() == messageType {
			return true
		}
	}
	return false
}

// TotalSize returns the sum of all content sizes
func (m Message) TotalSize() int64 {
	var total int64
	for _, content := range m.Content {
		total += content.Size()
	}
	return total
}

// AddContent adds a MessageContent item to the message
func (m *Message) AddContent(content MessageContent) {
	if m.Content == nil {
		m.Content = make([]MessageContent, 0)
	}
	m.Content = append(m.Content, content)
}

// SetMetadata sets a metadata key-value pair
func (m *Message) SetMetadata(key string, value any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}

// GetMetadata retrieves a metadata value by key
func (m Message) GetMetadata(key string) (any, bool) {
	if m.Metadata == nil {
		return nil, false
	}
	value, exists := m.Metadata[key]
	return value, exists
}

// Validate validates the role and all content items in the message
func (m Message) Validate() error {
	if !IsValidRole(m.Role) {
		return fmt.Errorf("unknown message role: %q", m.Role)
	}
	for i, content := range m.Content {
		if err := content.Validate(); err != nil {
			return fmt.Errorf("content item %d validation failed: %w", i, err)
		}
	}
	return nil
}

// HasToolCalls checks if the message contains any tool calls
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// AddToolCall adds a tool call to the message
func (m *Message) AddToolCall(toolCall ToolCall) {
	if m.ToolCalls == nil {
		m.ToolCalls = make([]ToolCall, 0)
	}
	m.ToolCalls = append(m.ToolCalls, toolCall)
}

// DeepCopy creates a deep copy of the message, including all content and tool
// calls, so that modifications to the copy will not affect the original
func (m Message) DeepCopy() Message {
	cp := Message{
		Role:       m.Role,
		ToolCallID: m.ToolCallID,
	}

	if len(m.Content) > 0 {
		cp.Content = make([]MessageContent, 0, len(m.Content))
		for _, content := range m.Content {
			cp.Content = append(cp.Content, deepCopyMessageContent(content))
		}
	}

	if len(m.ToolCalls) > 0 {
		cp.ToolCalls = make([]ToolCall, 0, len(m.ToolCalls))
		for _, toolCall := range m.ToolCalls {
			cp.ToolCalls = append(cp.ToolCalls, toolCall.DeepCopy())
		}
	}

	if len(m.Metadata) > 0 {
		cp.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			cp.Metadata[k] = deepCopyValue(v)
		}
	}

	return cp
}

// deepCopyMessageContent creates a deep copy of MessageContent based on its type
func deepCopyMessageContent(content MessageContent) MessageContent {
	if content == nil {
		return nil
	}

	switch c := content.(type) {
	case *TextContent:
		return &TextContent{Text: c.Text}
	case *ImageContent:
		return &ImageContent{URL: c.URL, MimeType: c.MimeType}
	case *VideoContent:
		return &VideoContent{URL: c.URL, MimeType: c.MimeType, Name: c.Name}
	case *AudioContent:
		return &AudioContent{URL: c.URL, MimeType: c.MimeType, Name: c.Name}
	case *FileContent:
		return &FileContent{URL: c.URL, MimeType: c.MimeType, Name: c.Name}
	default:
		// Unknown content types are serialized into a text part so no
		// information is silently lost
		jsonData, err := json.Marshal(content)
		if err != nil {
			return &TextContent{Text: "[unsupported content]"}
		}
		return &TextContent{Text: string(jsonData)}
	}
}

// deepCopyValue creates a deep copy of an arbitrary metadata value
func deepCopyValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string, int, int32, int64, float32, float64, bool:
		return val
	case []byte:
		copied := make([]byte, len(val))
		copy(copied, val)
		return copied
	case json.RawMessage:
		copied := make(json.RawMessage, len(val))
		copy(copied, val)
		return copied
	case map[string]any:
		cp := make(map[string]any, len(val))
		for k, v := range val {
			cp[k] = deepCopyValue(v)
		}
		return cp
	case []any:
		cp := make([]any, len(val))
		for i, v := range val {
			cp[i] = deepCopyValue(v)
		}
		return cp
	default:
		jsonData, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		var result any
		if err := json.Unmarshal(jsonData, &result); err != nil {
			return string(jsonData)
		}
		return result
	}
}

// MarshalJSON implements custom JSON marshaling for Message
func (m Message) MarshalJSON() ([]byte, error) {
	type Alias Message

	temp := struct {
		Alias
		Content []json.RawMessage `json:"content"`
	}{
		Alias: (Alias)(m),
	}

	if len(m.Content) > 0 {
		temp.Content = make([]json.RawMessage, len(m.Content))
		for i, content := range m.Content {
			contentBytes, err := json.Marshal(content)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal content item %d: %w", i, err)
			}
			temp.Content[i] = contentBytes
		}
	}

	return json.Marshal(temp)
}

// UnmarshalJSON implements custom JSON unmarshaling for Message
func (m *Message) UnmarshalJSON(data []byte) error {
	type Alias Message

	temp := struct {
		*Alias
		Content []json.RawMessage `json:"content"`
	}{
		Alias: (*Alias)(m),
	}

	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	if len(temp.Content) > 0 {
		m.Content = make([]MessageContent, 0, len(temp.Content))

		for i, contentBytes := range temp.Content {
			var typeChecker struct {
				Type MessageType `json:"type"`
			}
			if err := json.Unmarshal(contentBytes, &typeChecker); err != nil {
				return fmt.Errorf("failed to determine type for content item %d: %w", i, err)
			}

			var content MessageContent
			switch typeChecker.Type {
			case MessageTypeText:
				content = &TextContent{}
			case MessageTypeImage:
				content = &ImageContent{}
			case MessageTypeVideo:
				content = &VideoContent{}
			case MessageTypeAudio:
				content = &AudioContent{}
			case MessageTypeFile:
				content = &FileContent{}
			default:
				return fmt.Errorf("unsupported content type: %s", typeChecker.Type)
			}

			if err := json.Unmarshal(contentBytes, content); err != nil {
				return fmt.Errorf("failed to unmarshal content item %d of type %s: %w", i, typeChecker.Type, err)
			}

			m.Content = append(m.Content, content)
		}
	}

	return nil
}
