// Adapter contract implemented by each provider package
package llm

import (
	"context"

	"github.com/rs/zerolog"
)

// ProviderRequest is the provider-agnostic input an adapter turns into a
// RequestEnvelope. One ProviderRequest is built per call and discarded
// afterwards; nothing here is shared between calls.
type ProviderRequest struct {
	Model       string
	Messages    []Message
	APIKey      string
	BaseURL     string
	Provider    string // key into the adapter's default base-URL table
	Temperature *float32
	MaxTokens   *int
	Stream      bool
	Tools       []Tool
	ToolChoice  string
	Format      *ResponseFormat
}

// Adapter translates between the canonical model and one provider wire
// format. Implementations are stateless apart from injected collaborators
// and safe for concurrent use.
type Adapter interface {
	// Name returns the wire format identifier
	Name() APIFormat

	// Capabilities returns the immutable modality descriptor for the provider
	Capabilities() Capabilities

	// BuildRequest converts a ProviderRequest into the exact HTTP request the
	// provider expects. Local attachments are resolved through the configured
	// FileReader; unsupported modalities degrade to text fallbacks per the
	// capability descriptor, never errors.
	BuildRequest(ctx context.Context, req *ProviderRequest) (*RequestEnvelope, error)

	// ParseResponse decodes a complete (non-streaming) response body.
	// Provider error payloads and safety blocks come back as *Error.
	ParseResponse(body []byte) (*Response, error)

	// ParseStreamData decodes one SSE data payload (the line with its
	// "data:" prefix already stripped). Terminal markers set Done; malformed
	// payloads return a parse *Error the caller may log and skip.
	ParseStreamData(data string) (*StreamChunk, error)
}

// AdapterConfig carries the collaborators injected into adapters
type AdapterConfig struct {
	Files  FileReader
	Logger zerolog.Logger
}

// NewAdapterConfig returns a config with the default OS file reader and a
// no-op logger
func NewAdapterConfig() AdapterConfig {
	return AdapterConfig{
		Files:  NewOSFileReader(),
		Logger: zerolog.Nop(),
	}
}
