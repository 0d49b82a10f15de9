package gemini

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/JulesLiu390/PetGPT-sub001/pkg/llm"
)

// safetyFinishReasons are the candidate finish reasons that mean the content
// was blocked rather than completed
var safetyFinishReasons = map[string]bool{
	"SAFETY":             true,
	"RECITATION":         true,
	"PROHIBITED_CONTENT": true,
	"BLOCKLIST":          true,
	"SPII":               true,
	"IMAGE_SAFETY":       true,
}

// ParseResponse decodes a complete generateContent response body
func (a *Adapter) ParseResponse(body []byte) (*llm.Response, error) {
	if perr := probeErrorPayload(body); perr != nil {
		return llm.ErrorResponse(perr), nil
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return llm.ErrorResponse(llm.NewParseError("malformed response body: %v", err)), nil
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return llm.ErrorResponse(llm.NewSafetyBlockError("prompt blocked: " + resp.PromptFeedback.BlockReason)), nil
	}
	if len(resp.Candidates) == 0 {
		return llm.ErrorResponse(llm.NewParseError("response contains no candidates")), nil
	}

	cand := resp.Candidates[0]
	if safetyFinishReasons[cand.FinishReason] {
		return llm.ErrorResponse(llm.NewSafetyBlockError("response blocked: " + cand.FinishReason)), nil
	}

	text, toolCalls := decodeParts(cand.Content.Parts)
	out := &llm.Response{
		Content:      text,
		ToolCalls:    toolCalls,
		FinishReason: mapFinishReason(cand.FinishReason, len(toolCalls) > 0),
		Raw:          body,
	}
	if resp.UsageMetadata != nil {
		out.Usage = llm.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}
	return out, nil
}

// ParseStreamData decodes one SSE data payload. The stream format reuses the
// response shape; tool calls arrive complete, never fragmented.
func (a *Adapter) ParseStreamData(data string) (*llm.StreamChunk, error) {
	body := []byte(data)
	if perr := probeErrorPayload(body); perr != nil {
		return &llm.StreamChunk{Done: true, FinishReason: llm.FinishReasonError, Err: perr}, nil
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, llm.NewParseError("malformed stream payload: %v", err)
	}

	chunk := &llm.StreamChunk{}
	if resp.UsageMetadata != nil {
		chunk.Usage = &llm.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		chunk.Done = true
		chunk.FinishReason = llm.FinishReasonSafety
		chunk.Err = llm.NewSafetyBlockError("prompt blocked: " + resp.PromptFeedback.BlockReason)
		return chunk, nil
	}
	if len(resp.Candidates) == 0 {
		return chunk, nil
	}

	cand := resp.Candidates[0]
	if safetyFinishReasons[cand.FinishReason] {
		chunk.Done = true
		chunk.FinishReason = llm.FinishReasonSafety
		chunk.Err = llm.NewSafetyBlockError("response blocked: " + cand.FinishReason)
		return chunk, nil
	}

	chunk.DeltaText, chunk.ToolCalls = decodeParts(cand.Content.Parts)
	if cand.FinishReason != "" {
		chunk.Done = true
		chunk.FinishReason = mapFinishReason(cand.FinishReason, len(chunk.ToolCalls) > 0)
	}
	return chunk, nil
}

// decodeParts splits candidate parts into concatenated text and tool calls.
// Each functionCall part is kept whole as ProviderMetadata so a later request
// can replay it unchanged; call IDs are minted locally because the API does
// not assign any.
func decodeParts(parts []json.RawMessage) (string, []llm.ToolCall) {
	var text strings.Builder
	var toolCalls []llm.ToolCall

	for _, raw := range parts {
		var part responsePart
		if err := json.Unmarshal(raw, &part); err != nil {
			continue
		}
		if part.FunctionCall != nil {
			toolCalls = append(toolCalls, llm.ToolCall{
				ID:               uuid.NewString(),
				Name:             part.FunctionCall.Name,
				Arguments:        part.FunctionCall.Args,
				ProviderMetadata: append(json.RawMessage(nil), raw...),
			})
			continue
		}
		text.WriteString(part.Text)
	}
	return text.String(), toolCalls
}

// probeErrorPayload checks for the {"error": {"code", "message", "status"}}
// shape the API wraps failures in
func probeErrorPayload(body []byte) *llm.Error {
	errNode := gjson.GetBytes(body, "error")
	if !errNode.Exists() || errNode.Type == gjson.Null {
		return nil
	}
	message := errNode.Get("message").String()
	if message == "" {
		message = errNode.String()
	}
	return llm.NewProviderError(errNode.Get("status").String(), int(errNode.Get("code").Int()), message)
}

func mapFinishReason(reason string, hasToolCalls bool) string {
	if hasToolCalls {
		return llm.FinishReasonToolCalls
	}
	switch reason {
	case "STOP", "":
		return llm.FinishReasonStop
	case "MAX_TOKENS":
		return llm.FinishReasonLength
	default:
		return llm.FinishReasonStop
	}
}
