package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RawMessage is the loosely-typed message shape accepted at the public
// boundary. Content may be a bare string or an array of tagged part objects;
// Normalize converts either form into the canonical Message model.
type RawMessage struct {
	Role       string          `json:"role"`
	Content    json.RawMessage `json:"content"`
	ToolCalls  []ToolCall      `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	ActiveTool bool            `json:"active_tool_loop,omitempty"`
}

// rawPart mirrors the tagged part shapes accepted inside a content array.
type rawPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL      string `json:"url"`
		MimeType string `json:"mime_type,omitempty"`
	} `json:"image_url,omitempty"`
	FileURL *struct {
		URL      string `json:"url"`
		MimeType string `json:"mime_type,omitempty"`
		Name     string `json:"name,omitempty"`
	} `json:"file_url,omitempty"`
}

// Normalize converts a slice of loosely-typed messages into canonical
// messages. Part order is preserved. Unknown part shapes are kept as text so
// no caller data is silently dropped; unknown roles are rejected.
func Normalize(raws []RawMessage) ([]Message, error) {
	messages := make([]Message, 0, len(raws))
	for i, raw := range raws {
		msg, err := NormalizeMessage(raw)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// NormalizeMessage converts a single loosely-typed message into its canonical
// form
func NormalizeMessage(raw RawMessage) (Message, error) {
	if !IsValidRole(MessageRole(raw.Role)) {
		return Message{}, NewValidationError("invalid_role", "unsupported role: %s", raw.Role)
	}

	msg := Message{
		Role:       MessageRole(raw.Role),
		ToolCalls:  raw.ToolCalls,
		ToolCallID: raw.ToolCallID,
	}
	if raw.ActiveTool {
		msg.MarkActiveToolLoop()
	}

	if len(raw.Content) == 0 {
		return msg, nil
	}

	// Bare string content becomes a single text part.
	var text string
	if err := json.Unmarshal(raw.Content, &text); err == nil {
		msg.Content = []MessageContent{NewTextContent(text)}
		return msg, nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(raw.Content, &parts); err != nil {
		return Message{}, NewValidationError("invalid_content", "content must be a string or an array of parts")
	}

	msg.Content = make([]MessageContent, 0, len(parts))
	for _, part := range parts {
		msg.Content = append(msg.Content, normalizePart(part))
	}
	return msg, nil
}

// normalizePart converts one tagged part object into a canonical content
// part. Anything unrecognized is serialized back to text rather than dropped.
func normalizePart(raw json.RawMessage) MessageContent {
	var part rawPart
	if err := json.Unmarshal(raw, &part); err != nil {
		return NewTextContent(string(raw))
	}

	switch part.Type {
	case "text":
		return NewTextContent(part.Text)

	case "image_url":
		if part.ImageURL == nil {
			return NewTextContent(string(raw))
		}
		mime := part.ImageURL.MimeType
		if mime == "" {
			mime = InferMimeType(part.ImageURL.URL)
		}
		return &ImageContent{URL: part.ImageURL.URL, MimeType: mime}

	case "file_url":
		if part.FileURL == nil {
			return NewTextContent(string(raw))
		}
		return normalizeFilePart(part.FileURL.URL, part.FileURL.MimeType, part.FileURL.Name)
	}

	return NewTextContent(string(raw))
}

// normalizeFilePart routes a file reference to the media part matching its
// MIME category. Explicit MIME types win over extension inference.
func normalizeFilePart(url, mimeType, name string) MessageContent {
	if mimeType == "" {
		mimeType = InferMimeType(url)
	}
	if name == "" {
		name = fileNameFromURL(url)
	}

	switch MimeCategory(mimeType) {
	case "image":
		return &ImageContent{URL: url, MimeType: mimeType}
	case "video":
		return &VideoContent{URL: url, MimeType: mimeType, Name: name}
	case "audio":
		return &AudioContent{URL: url, MimeType: mimeType, Name: name}
	}
	return &FileContent{URL: url, MimeType: mimeType, Name: name}
}

// fileNameFromURL extracts the last path segment of a URL or file path,
// stripping any query string
func fileNameFromURL(url string) string {
	if IsDataURI(url) {
		return ""
	}
	if idx := strings.IndexAny(url, "?#"); idx >= 0 {
		url = url[:idx]
	}
	url = strings.TrimRight(url, "/")
	if idx := strings.LastIndexAny(url, "/\\"); idx >= 0 {
		return url[idx+1:]
	}
	return url
}
