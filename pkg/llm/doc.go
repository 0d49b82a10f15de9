// Package llm defines the provider-agnostic model for chat requests against
// Large Language Model backends.
//
// This package holds the canonical message representation that every adapter
// reads and writes, along with the common types for requests, responses,
// tool calling, and streaming.
//
// The main components include:
//
// - Message types: multi-modal message support (text, images, video, audio, files)
// - Normalizer: converts external message shapes into the canonical model
// - Adapter interface: per-provider request building and response parsing
// - Capabilities: static per-provider modality and size-limit descriptors
// - Tool system: function-call declarations and round-trip metadata
// - Error handling: standardized error types
//
// Provider implementations are located in separate packages under /pkg/providers/
// to maintain clean separation of concerns and avoid import cycles.
package llm
