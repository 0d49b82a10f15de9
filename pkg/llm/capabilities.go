// Static capability descriptors for providers and models
package llm

import "regexp"

// Capabilities describes what modalities and payload sizes a provider
// accepts. Descriptors are immutable: they are consulted to pick fallback
// behavior (degrade an unsupported part to text) and never mutated at
// runtime. A modality that is unsupported is not an error condition.
type Capabilities struct {
	Image              bool
	Video              bool
	Audio              bool
	PDF                bool
	Docx               bool
	SupportsInlineData bool
	MaxInlineBytes     int64
	// NativeGrounding marks providers whose built-in web-search grounding is
	// wired up. Off by default for all adapters; callers inject their own
	// search step instead.
	NativeGrounding bool
}

// SupportsMimeType reports whether a payload of the given MIME type can be
// sent to the provider natively
func (c Capabilities) SupportsMimeType(mimeType string) bool {
	switch MimeCategory(mimeType) {
	case "image":
		return c.Image
	case "video":
		return c.Video
	case "audio":
		return c.Audio
	}
	switch {
	case mimeType == "application/pdf":
		return c.PDF
	case IsWordProcessorMimeType(mimeType):
		return c.Docx
	}
	return false
}

// modelCapability binds a model-name pattern to a capability override.
// Patterns are matched in order, first match wins.
type modelCapability struct {
	pattern *regexp.Regexp
	caps    Capabilities
}

// modelCapabilityTable holds per-(provider, model) capability overrides.
// Newer or older models whose support deviates from the provider default get
// an explicit row here instead of ad hoc string checks scattered through the
// adapters.
var modelCapabilityTable = map[APIFormat][]modelCapability{
	APIFormatOpenAICompatible: {
		// Legacy text-only completions models
		{regexp.MustCompile(`^gpt-3\.5`), Capabilities{SupportsInlineData: true}},
	},
	APIFormatGeminiOfficial: {},
}

// CapabilitiesForModel resolves the effective capabilities for a model,
// starting from the adapter default and applying any table override
func CapabilitiesForModel(format APIFormat, model string, base Capabilities) Capabilities {
	for _, entry := range modelCapabilityTable[format] {
		if entry.pattern.MatchString(model) {
			return entry.caps
		}
	}
	return base
}
