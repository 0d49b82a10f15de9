package gemini

import (
	"github.com/JulesLiu390/PetGPT-sub001/pkg/llm"
)

// sanitizeHistory removes function-call exchanges that cannot be replayed to
// the API. Gemini rejects functionCall parts it did not produce, so an
// assistant tool-call message survives only when it is part of the active
// tool loop or every call carries the raw part captured from a previous
// response. Tool-result messages survive only when their matching call
// survived, keeping call and response parts paired.
func sanitizeHistory(messages []llm.Message) []llm.Message {
	keptCallIDs := make(map[string]bool)
	out := make([]llm.Message, 0, len(messages))

	for _, msg := range messages {
		switch {
		case msg.Role == llm.RoleAssistant && msg.HasToolCalls():
			if !msg.InActiveToolLoop() && !allCallsReplayable(msg.ToolCalls) {
				continue
			}
			for _, tc := range msg.ToolCalls {
				keptCallIDs[tc.ID] = true
			}
			out = append(out, msg)

		case msg.Role == llm.RoleTool:
			if !msg.InActiveToolLoop() && !keptCallIDs[msg.ToolCallID] {
				continue
			}
			out = append(out, msg)

		default:
			out = append(out, msg)
		}
	}
	return out
}

func allCallsReplayable(calls []llm.ToolCall) bool {
	for _, tc := range calls {
		if !tc.HasProviderMetadata() {
			return false
		}
	}
	return true
}

// functionNameFor resolves the function name for a tool-result message by
// scanning earlier assistant messages for the matching call ID
func functionNameFor(messages []llm.Message, toolCallID string) string {
	for _, msg := range messages {
		for _, tc := range msg.ToolCalls {
			if tc.ID == toolCallID {
				return tc.Name
			}
		}
	}
	return ""
}
