package dispatch

import (
	"sort"
	"strings"

	"github.com/JulesLiu390/PetGPT-sub001/pkg/llm"
)

// toolCallAccumulator assembles tool calls out of a stream. OpenAI-style
// streams fragment each call across many deltas keyed by index; Gemini-style
// streams deliver calls complete. Both feed the same accumulator.
type toolCallAccumulator struct {
	pending  map[int]*pendingCall
	complete []llm.ToolCall
}

type pendingCall struct {
	id        string
	name      string
	arguments strings.Builder
}

func newToolCallAccumulator() *toolCallAccumulator {
	return &toolCallAccumulator{pending: make(map[int]*pendingCall)}
}

// AddDeltas merges fragment deltas into their pending calls by stream index
func (a *toolCallAccumulator) AddDeltas(deltas []llm.ToolCallDelta) {
	for _, d := range deltas {
		call, ok := a.pending[d.Index]
		if !ok {
			call = &pendingCall{}
			a.pending[d.Index] = call
		}
		if d.ID != "" {
			call.id = d.ID
		}
		if d.Name != "" {
			call.name = d.Name
		}
		call.arguments.WriteString(d.Arguments)
	}
}

// AddComplete records calls that arrived whole
func (a *toolCallAccumulator) AddComplete(calls []llm.ToolCall) {
	a.complete = append(a.complete, calls...)
}

// Empty reports whether no tool calls were seen
func (a *toolCallAccumulator) Empty() bool {
	return len(a.pending) == 0 && len(a.complete) == 0
}

// Calls returns the assembled tool calls, complete ones first, then pending
// ones in stream-index order
func (a *toolCallAccumulator) Calls() []llm.ToolCall {
	if a.Empty() {
		return nil
	}

	out := make([]llm.ToolCall, 0, len(a.complete)+len(a.pending))
	out = append(out, a.complete...)

	indexes := make([]int, 0, len(a.pending))
	for idx := range a.pending {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		call := a.pending[idx]
		out = append(out, llm.ToolCall{
			ID:        call.id,
			Name:      call.name,
			Arguments: llm.ParseToolArguments(call.arguments.String()),
		})
	}
	return out
}
