// Package factory constructs provider adapters by wire format
package factory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/JulesLiu390/PetGPT-sub001/pkg/llm"
	"github.com/JulesLiu390/PetGPT-sub001/pkg/providers/gemini"
	"github.com/JulesLiu390/PetGPT-sub001/pkg/providers/openai"
)

// Constructor builds an adapter from shared collaborators
type Constructor func(cfg llm.AdapterConfig) (llm.Adapter, error)

var (
	registryMu sync.RWMutex
	registry   = map[llm.APIFormat]Constructor{
		llm.APIFormatOpenAICompatible: openai.New,
		llm.APIFormatGeminiOfficial:   gemini.New,
	}
)

// Register adds or replaces the constructor for a wire format. Intended for
// callers that bring their own adapter implementation.
func Register(format llm.APIFormat, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[format] = ctor
}

// NewAdapter builds the adapter for one wire format
func NewAdapter(format llm.APIFormat, cfg llm.AdapterConfig) (llm.Adapter, error) {
	registryMu.RLock()
	ctor, ok := registry[format]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no adapter registered for format %q", format)
	}
	return ctor(cfg)
}

// NewAdapters builds one adapter per registered wire format
func NewAdapters(cfg llm.AdapterConfig) (map[llm.APIFormat]llm.Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	adapters := make(map[llm.APIFormat]llm.Adapter, len(registry))
	for format, ctor := range registry {
		adapter, err := ctor(cfg)
		if err != nil {
			return nil, fmt.Errorf("building %q adapter: %w", format, err)
		}
		adapters[format] = adapter
	}
	return adapters, nil
}

// SupportedFormats lists the registered wire formats in stable order
func SupportedFormats() []llm.APIFormat {
	registryMu.RLock()
	defer registryMu.RUnlock()

	formats := make([]llm.APIFormat, 0, len(registry))
	for format := range registry {
		formats = append(formats, format)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}
