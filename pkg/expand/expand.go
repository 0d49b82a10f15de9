// Package expand turns document attachments into inline text before a
// request is handed to a provider adapter. Providers that cannot ingest
// word-processor files still receive the document body this way.
package expand

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/JulesLiu390/PetGPT-sub001/pkg/llm"
)

// DefaultTextLimit caps how many runes of extracted document text are
// inlined into a message.
const DefaultTextLimit = 60000

// Extractor converts a document reference into plain text.
type Extractor interface {
	Extract(ctx context.Context, url, mimeType string) (string, error)
}

// ExtractorFunc adapts a function to the Extractor interface
type ExtractorFunc func(ctx context.Context, url, mimeType string) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, url, mimeType string) (string, error) {
	return f(ctx, url, mimeType)
}

// Expander rewrites messages so that extractable file attachments become
// inline text parts.
type Expander struct {
	extractor Extractor
	limit     int
	logger    zerolog.Logger
}

// New creates an Expander using the given extractor. A nil extractor yields
// an Expander that passes every message through unchanged.
func New(extractor Extractor) *Expander {
	return &Expander{
		extractor: extractor,
		limit:     DefaultTextLimit,
		logger:    zerolog.Nop(),
	}
}

// WithLimit overrides the extracted-text rune limit
func (e *Expander) WithLimit(limit int) *Expander {
	e.limit = limit
	return e
}

// WithLogger sets the logger used for extraction failures
func (e *Expander) WithLogger(logger zerolog.Logger) *Expander {
	e.logger = logger
	return e
}

// Expand returns a new message slice in which every extractable file part is
// replaced by a marker plus the document text. The input slice is never
// modified; messages without file parts are reused as-is.
func (e *Expander) Expand(ctx context.Context, messages []llm.Message) []llm.Message {
	if e.extractor == nil {
		return messages
	}

	out := make([]llm.Message, len(messages))
	copy(out, messages)

	for i := range out {
		if !hasExpandableFile(out[i]) {
			continue
		}
		expanded := out[i].DeepCopy()
		expanded.Content = e.expandParts(ctx, expanded.Content)
		out[i] = expanded
	}
	return out
}

func hasExpandableFile(msg llm.Message) bool {
	for _, part := range msg.Content {
		if file, ok := part.(*llm.FileContent); ok && isExtractable(file.MimeType) {
			return true
		}
	}
	return false
}

func (e *Expander) expandParts(ctx context.Context, parts []llm.MessageContent) []llm.MessageContent {
	out := make([]llm.MessageContent, 0, len(parts))
	for _, part := range parts {
		file, ok := part.(*llm.FileContent)
		if !ok || !isExtractable(file.MimeType) {
			out = append(out, part)
			continue
		}

		text, err := e.extractor.Extract(ctx, file.URL, file.MimeType)
		if err != nil {
			e.logger.Warn().
				Err(err).
				Str("name", file.DisplayName()).
				Str("mime_type", file.MimeType).
				Msg("document extraction failed, keeping attachment")
			out = append(out, part)
			continue
		}

		marker := fmt.Sprintf("[Attachment: %s (%s)]", file.DisplayName(), file.MimeType)
		out = append(out,
			llm.NewTextContent(marker),
			llm.NewTextContent(truncateRunes(strings.TrimSpace(text), e.limit)))
	}
	return out
}

// isExtractable reports whether the MIME type is one the expander inlines.
// Plain text formats and word-processor documents qualify; PDFs and media
// stay as attachments for providers that accept them natively.
func isExtractable(mimeType string) bool {
	return llm.IsTextualMimeType(mimeType) || llm.IsWordProcessorMimeType(mimeType)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
