package openai

import (
	"encoding/json"

	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"

	"github.com/JulesLiu390/PetGPT-sub001/pkg/llm"
)

// streamDoneMarker terminates an OpenAI-compatible SSE stream
const streamDoneMarker = "[DONE]"

// ParseResponse decodes a complete chat completions response body. Provider
// error payloads come back as a response with Err set rather than a Go error.
func (a *Adapter) ParseResponse(body []byte) (*llm.Response, error) {
	if perr := probeErrorPayload(body, 0); perr != nil {
		return llm.ErrorResponse(perr), nil
	}

	var resp openai.ChatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return llm.ErrorResponse(llm.NewParseError("malformed response body: %v", err)), nil
	}
	if len(resp.Choices) == 0 {
		return llm.ErrorResponse(llm.NewParseError("response contains no choices")), nil
	}

	choice := resp.Choices[0]
	out := &llm.Response{
		Content:      choice.Message.Content,
		FinishReason: mapFinishReason(string(choice.FinishReason)),
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Raw: body,
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: llm.ParseToolArguments(tc.Function.Arguments),
		})
	}
	if len(out.ToolCalls) > 0 && out.FinishReason == "" {
		out.FinishReason = llm.FinishReasonToolCalls
	}
	return out, nil
}

// ParseStreamData decodes one SSE data payload
func (a *Adapter) ParseStreamData(data string) (*llm.StreamChunk, error) {
	if data == streamDoneMarker {
		return &llm.StreamChunk{Done: true, FinishReason: llm.FinishReasonStop}, nil
	}

	if perr := probeErrorPayload([]byte(data), 0); perr != nil {
		return &llm.StreamChunk{Done: true, FinishReason: llm.FinishReasonError, Err: perr}, nil
	}

	var resp openai.ChatCompletionStreamResponse
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		return nil, llm.NewParseError("malformed stream payload: %v", err)
	}

	chunk := &llm.StreamChunk{}
	if resp.Usage != nil {
		chunk.Usage = &llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	if len(resp.Choices) == 0 {
		return chunk, nil
	}

	choice := resp.Choices[0]
	chunk.DeltaText = choice.Delta.Content
	for i, tc := range choice.Delta.ToolCalls {
		index := i
		if tc.Index != nil {
			index = *tc.Index
		}
		chunk.DeltaToolCalls = append(chunk.DeltaToolCalls, llm.ToolCallDelta{
			Index:     index,
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	if choice.FinishReason != "" {
		chunk.Done = true
		chunk.FinishReason = mapFinishReason(string(choice.FinishReason))
	}
	return chunk, nil
}

// probeErrorPayload checks a body for the standard {"error": {...}} shape
// without committing to a full decode
func probeErrorPayload(body []byte, statusCode int) *llm.Error {
	errNode := gjson.GetBytes(body, "error")
	if !errNode.Exists() || errNode.Type == gjson.Null {
		return nil
	}
	message := errNode.Get("message").String()
	if message == "" {
		message = errNode.String()
	}
	return llm.NewProviderError(errNode.Get("code").String(), statusCode, message)
}

func mapFinishReason(reason string) string {
	switch reason {
	case "stop":
		return llm.FinishReasonStop
	case "length":
		return llm.FinishReasonLength
	case "tool_calls", "function_call":
		return llm.FinishReasonToolCalls
	case "content_filter":
		return llm.FinishReasonSafety
	case "":
		return ""
	default:
		return llm.FinishReasonStop
	}
}
