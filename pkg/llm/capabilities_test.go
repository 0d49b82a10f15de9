package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupportsMimeType(t *testing.T) {
	t.Parallel()
	caps := Capabilities{Image: true, Video: true, PDF: true}

	assert.True(t, caps.SupportsMimeType("image/png"))
	assert.True(t, caps.SupportsMimeType("video/mp4"))
	assert.True(t, caps.SupportsMimeType("application/pdf"))
	assert.False(t, caps.SupportsMimeType("audio/mpeg"))
	assert.False(t, caps.SupportsMimeType(MimeTypeDocx))
}

func TestCapabilitiesForModel(t *testing.T) {
	t.Parallel()
	base := Capabilities{Image: true, SupportsInlineData: true}

	// Legacy models lose image support through the override table
	legacy := CapabilitiesForModel(APIFormatOpenAICompatible, "gpt-3.5-turbo", base)
	assert.False(t, legacy.Image)

	// Everything else keeps the adapter default
	modern := CapabilitiesForModel(APIFormatOpenAICompatible, "gpt-4o", base)
	assert.Equal(t, base, modern)

	gemini := CapabilitiesForModel(APIFormatGeminiOfficial, "gemini-2.0-flash", base)
	assert.Equal(t, base, gemini)
}
