package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// TextContent represents text-based message content
// It provides backward compatibility with plain text-only message systems
type TextContent struct {
	Text string `json:"text"`
}

// NewTextContent creates a new TextContent instance with the given text
func NewTextContent(text string) *TextContent {
	return &TextContent{
		Text: text,
	}
}

// Type returns the message type for text content
func (t *TextContent) Type() MessageType {
	return MessageTypeText
}

// Validate checks if the text content is valid
// Text content must not be empty or contain only whitespace
func (t *TextContent) Validate() error {
	if t == nil {
		return errors.New("text content cannot be nil")
	}
	if strings.TrimSpace(t.Text) == "" {
		return errors.New("text content cannot be empty")
	}
	return nil
}

// Size returns the byte size of the text content
// This correctly handles Unicode and multi-byte characters
func (t *TextContent) Size() int64 {
	if t == nil {
		return 0
	}
	return int64(len(t.Text))
}

// GetText returns the text content as a string
func (t *TextContent) GetText() string {
	if t == nil {
		return ""
	}
	return t.Text
}

// IsEmpty checks if the text content is empty or whitespace-only
func (t *TextContent) IsEmpty() bool {
	if t == nil {
		return true
	}
	return strings.TrimSpace(t.Text) == ""
}

// MarshalJSON implements custom JSON marshaling for TextContent
func (t *TextContent) MarshalJSON() ([]byte, error) {
	if t == nil {
		return json.Marshal(nil)
	}
	data := struct {
		Type MessageType `json:"type"`
		Text string      `json:"text"`
	}{
		Type: t.Type(),
		Text: t.Text,
	}
	return json.Marshal(data)
}

// UnmarshalJSON implements custom JSON unmarshaling for TextContent
func (t *TextContent) UnmarshalJSON(data []byte) error {
	if t == nil {
		return errors.New("cannot unmarshal into nil TextContent")
	}
	var content struct {
		Type MessageType `json:"type"`
		Text string      `json:"text"`
	}
	if err := json.Unmarshal(data, &content); err != nil {
		return err
	}
	if content.Type != "" && content.Type != MessageTypeText {
		return errors.New("invalid content type for TextContent")
	}
	t.Text = content.Text
	return nil
}

// ImageContent represents image-based message content.
// The URL may be a base64 data URI, an http(s) URL, or a local file path that
// an adapter resolves through a FileReader when building the wire request.
type ImageContent struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// NewImageContent creates a new ImageContent instance.
// The MIME type is inferred from the URL when not supplied.
func NewImageContent(url, mimeType string) *ImageContent {
	if mimeType == "" {
		mimeType = InferMimeType(url)
	}
	return &ImageContent{
		URL:      url,
		MimeType: mimeType,
	}
}

// Type returns the message type for image content
func (i *ImageContent) Type() MessageType {
	return MessageTypeImage
}

// Validate checks if the image content is valid
func (i *ImageContent) Validate() error {
	if i == nil {
		return errors.New("image content cannot be nil")
	}
	if strings.TrimSpace(i.URL) == "" {
		return errors.New("image content must have a URL")
	}
	if strings.TrimSpace(i.MimeType) == "" {
		return errors.New("image content must have a MIME type")
	}
	return nil
}

// Size returns the byte size of the image reference
func (i *ImageContent) Size() int64 {
	if i == nil {
		return 0
	}
	return int64(len(i.URL))
}

// MarshalJSON implements custom JSON marshaling for ImageContent
func (i *ImageContent) MarshalJSON() ([]byte, error) {
	if i == nil {
		return json.Marshal(nil)
	}
	data := struct {
		Type     MessageType `json:"type"`
		URL      string      `json:"url"`
		MimeType string      `json:"mime_type"`
	}{
		Type:     i.Type(),
		URL:      i.URL,
		MimeType: i.MimeType,
	}
	return json.Marshal(data)
}

// UnmarshalJSON implements custom JSON unmarshaling for ImageContent
func (i *ImageContent) UnmarshalJSON(data []byte) error {
	if i == nil {
		return errors.New("cannot unmarshal into nil ImageContent")
	}
	var content struct {
		Type     MessageType `json:"type"`
		URL      string      `json:"url"`
		MimeType string      `json:"mime_type"`
	}
	if err := json.Unmarshal(data, &content); err != nil {
		return err
	}
	if content.Type != "" && content.Type != MessageTypeImage {
		return errors.New("invalid content type for ImageContent")
	}
	i.URL = content.URL
	i.MimeType = content.MimeType
	return nil
}

// VideoContent represents video-based message content
type VideoContent struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Name     string `json:"name,omitempty"`
}

// NewVideoContent creates a new VideoContent instance.
// The MIME type is inferred from the URL when not supplied.
func NewVideoContent(url, mimeType, name string) *VideoContent {
	if mimeType == "" {
		mimeType = InferMimeType(url)
	}
	return &VideoContent{
		URL:      url,
		MimeType: mimeType,
		Name:     name,
	}
}

// Type returns the message type for video content
func (v *VideoContent) Type() MessageType {
	return MessageTypeVideo
}

// Validate checks if the video content is valid
func (v *VideoContent) Validate() error {
	if v == nil {
		return errors.New("video content cannot be nil")
	}
	if strings.TrimSpace(v.URL) == "" {
		return errors.New("video content must have a URL")
	}
	if strings.TrimSpace(v.MimeType) == "" {
		return errors.New("video content must have a MIME type")
	}
	return nil
}

// Size returns the byte size of the video reference
func (v *VideoContent) Size() int64 {
	if v == nil {
		return 0
	}
	return int64(len(v.URL))
}

// DisplayName returns the attachment name, falling back to the URL
func (v *VideoContent) DisplayName() string {
	if v == nil {
		return ""
	}
	if v.Name != "" {
		return v.Name
	}
	return v.URL
}

// MarshalJSON implements custom JSON marshaling for VideoContent
func (v *VideoContent) MarshalJSON() ([]byte, error) {
	if v == nil {
		return json.Marshal(nil)
	}
	data := struct {
		Type     MessageType `json:"type"`
		URL      string      `json:"url"`
		MimeType string      `json:"mime_type"`
		Name     string      `json:"name,omitempty"`
	}{
		Type:     v.Type(),
		URL:      v.URL,
		MimeType: v.MimeType,
		Name:     v.Name,
	}
	return json.Marshal(data)
}

// UnmarshalJSON implements custom JSON unmarshaling for VideoContent
func (v *VideoContent) UnmarshalJSON(data []byte) error {
	if v == nil {
		return errors.New("cannot unmarshal into nil VideoContent")
	}
	var content struct {
		Type     MessageType `json:"type"`
		URL      string      `json:"url"`
		MimeType string      `json:"mime_type"`
		Name     string      `json:"name,omitempty"`
	}
	if err := json.Unmarshal(data, &content); err != nil {
		return err
	}
	if content.Type != "" && content.Type != MessageTypeVideo {
		return errors.New("invalid content type for VideoContent")
	}
	v.URL = content.URL
	v.MimeType = content.MimeType
	v.Name = content.Name
	return nil
}

// AudioContent represents audio-based message content
type AudioContent struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Name     string `json:"name,omitempty"`
}

// NewAudioContent creates a new AudioContent instance.
// The MIME type is inferred from the URL when not supplied.
func NewAudioContent(url, mimeType, name string) *AudioContent {
	if mimeType == "" {
		mimeType = InferMimeType(url)
	}
	return &AudioContent{
		URL:      url,
		MimeType: mimeType,
		Name:     name,
	}
}

// Type returns the message type for audio content
func (a *AudioContent) Type() MessageType {
	return MessageTypeAudio
}

// Validate checks if the audio content is valid
func (a *AudioContent) Validate() error {
	if a == nil {
		return errors.New("audio content cannot be nil")
	}
	if strings.TrimSpace(a.URL) == "" {
		return errors.New("audio content must have a URL")
	}
	if strings.TrimSpace(a.MimeType) == "" {
		return errors.New("audio content must have a MIME type")
	}
	return nil
}

// Size returns the byte size of the audio reference
func (a *AudioContent) Size() int64 {
	if a == nil {
		return 0
	}
	return int64(len(a.URL))
}

// DisplayName returns the attachment name, falling back to the URL
func (a *AudioContent) DisplayName() string {
	if a == nil {
		return ""
	}
	if a.Name != "" {
		return a.Name
	}
	return a.URL
}

// MarshalJSON implements custom JSON marshaling for AudioContent
func (a *AudioContent) MarshalJSON() ([]byte, error) {
	if a == nil {
		return json.Marshal(nil)
	}
	data := struct {
		Type     MessageType `json:"type"`
		URL      string      `json:"url"`
		MimeType string      `json:"mime_type"`
		Name     string      `json:"name,omitempty"`
	}{
		Type:     a.Type(),
		URL:      a.URL,
		MimeType: a.MimeType,
		Name:     a.Name,
	}
	return json.Marshal(data)
}

// UnmarshalJSON implements custom JSON unmarshaling for AudioContent
func (a *AudioContent) UnmarshalJSON(data []byte) error {
	if a == nil {
		return errors.New("cannot unmarshal into nil AudioContent")
	}
	var content struct {
		Type     MessageType `json:"type"`
		URL      string      `json:"url"`
		MimeType string      `json:"mime_type"`
		Name     string      `json:"name,omitempty"`
	}
	if err := json.Unmarshal(data, &content); err != nil {
		return err
	}
	if content.Type != "" && content.Type != MessageTypeAudio {
		return errors.New("invalid content type for AudioContent")
	}
	a.URL = content.URL
	a.MimeType = content.MimeType
	a.Name = content.Name
	return nil
}

// FileContent represents file-based message content for any attachment that
// is not an image, video, or audio clip (documents, archives, data files)
type FileContent struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Name     string `json:"name,omitempty"`
}

// NewFileContent creates a new FileContent instance.
// The MIME type is inferred from the URL when not supplied.
func NewFileContent(url, mimeType, name string) *FileContent {
	if mimeType == "" {
		mimeType = InferMimeType(url)
	}
	return &FileContent{
		URL:      url,
		MimeType: mimeType,
		Name:     name,
	}
}

// Type returns the message type for file content
func (f *FileContent) Type() MessageType {
	return MessageTypeFile
}

// Validate checks if the file content is valid
func (f *FileContent) Validate() error {
	if f == nil {
		return errors.New("file content cannot be nil")
	}
	if strings.TrimSpace(f.URL) == "" {
		return errors.New("file content must have a URL")
	}
	if strings.TrimSpace(f.MimeType) == "" {
		return errors.New("file content must have a MIME type")
	}
	return nil
}

// Size returns the byte size of the file reference
func (f *FileContent) Size() int64 {
	if f == nil {
		return 0
	}
	return int64(len(f.URL))
}

// DisplayName returns the attachment name, falling back to the URL
func (f *FileContent) DisplayName() string {
	if f == nil {
		return ""
	}
	if f.Name != "" {
		return f.Name
	}
	return f.URL
}

// MarshalJSON implements custom JSON marshaling for FileContent
func (f *FileContent) MarshalJSON() ([]byte, error) {
	if f == nil {
		return json.Marshal(nil)
	}
	data := struct {
		Type     MessageType `json:"type"`
		URL      string      `json:"url"`
		MimeType string      `json:"mime_type"`
		Name     string      `json:"name,omitempty"`
	}{
		Type:     f.Type(),
		URL:      f.URL,
		MimeType: f.MimeType,
		Name:     f.Name,
	}
	return json.Marshal(data)
}

// UnmarshalJSON implements custom JSON unmarshaling for FileContent
func (f *FileContent) UnmarshalJSON(data []byte) error {
	if f == nil {
		return errors.New("cannot unmarshal into nil FileContent")
	}
	var content struct {
		Type     MessageType `json:"type"`
		URL      string      `json:"url"`
		MimeType string      `json:"mime_type"`
		Name     string      `json:"name,omitempty"`
	}
	if err := json.Unmarshal(data, &content); err != nil {
		return err
	}
	if content.Type != "" && content.Type != MessageTypeFile {
		return errors.New("invalid content type for FileContent")
	}
	f.URL = content.URL
	f.MimeType = content.MimeType
	f.Name = content.Name
	return nil
}
