package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/JulesLiu390/PetGPT-sub001/pkg/llm"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	d, err := New()
	require.NoError(t, err)
	return d
}

func userRequest(serverURL, conversationID string) Request {
	return Request{
		ConversationID: conversationID,
		APIFormat:      llm.APIFormatOpenAICompatible,
		Provider:       "openai",
		Model:          "gpt-4o",
		APIKey:         "sk-test",
		BaseURL:        serverURL,
		Messages:       []llm.Message{llm.NewTextMessage(llm.RoleUser, "hello")},
	}
}

func TestCallRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, false, body["stream"])

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"choices": [{"message": {"role": "assistant", "content": "Hi there!"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 8, "completion_tokens": 3, "total_tokens": 11}
		}`)
	}))
	defer server.Close()

	resp, err := newTestDispatcher(t).Call(context.Background(), userRequest(server.URL, "conv-1"))
	require.NoError(t, err)
	require.False(t, resp.Failed())

	assert.Equal(t, "Hi there!", resp.Content)
	assert.Equal(t, llm.FinishReasonStop, resp.FinishReason)
	assert.Equal(t, 11, resp.Usage.TotalTokens)
}

func TestCallProviderErrorInsideResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "Incorrect API key", "code": "invalid_api_key"}}`)
	}))
	defer server.Close()

	resp, err := newTestDispatcher(t).Call(context.Background(), userRequest(server.URL, "conv-1"))
	require.NoError(t, err)
	require.True(t, resp.Failed())

	assert.Equal(t, llm.ErrorTypeProvider, resp.Err.Type)
	assert.Equal(t, http.StatusUnauthorized, resp.Err.StatusCode)
	assert.Equal(t, "Error: Incorrect API key", resp.Content)
}

func TestCallNetworkErrorInsideResponse(t *testing.T) {
	resp, err := newTestDispatcher(t).Call(context.Background(), userRequest("http://127.0.0.1:1", "conv-1"))
	require.NoError(t, err)
	require.True(t, resp.Failed())
	assert.Equal(t, llm.ErrorTypeNetwork, resp.Err.Type)
}

func TestCallUnknownFormatIsCallerError(t *testing.T) {
	req := userRequest("http://unused", "conv-1")
	req.APIFormat = "carrier_pigeon"
	_, err := newTestDispatcher(t).Call(context.Background(), req)
	require.Error(t, err)
}

func sseHandler(t *testing.T, payloads []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Error("response writer does not support flushing")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, p := range payloads {
			fmt.Fprintf(w, "data: %s\n\n", p)
			flusher.Flush()
		}
	}
}

func TestStreamAccumulatesDeltas(t *testing.T) {
	server := httptest.NewServer(sseHandler(t, []string{
		`{"choices": [{"delta": {"content": "Hel"}}]}`,
		`{"choices": [{"delta": {"content": "lo!"}}]}`,
		`{"choices": [{"delta": {}, "finish_reason": "stop"}]}`,
		`[DONE]`,
	}))
	defer server.Close()

	var deltas []string
	var lastFull string
	resp, err := newTestDispatcher(t).Stream(context.Background(), userRequest(server.URL, "conv-1"),
		func(conversationID, delta, fullText string) {
			assert.Equal(t, "conv-1", conversationID)
			deltas = append(deltas, delta)
			lastFull = fullText
		})
	require.NoError(t, err)
	require.False(t, resp.Failed())

	assert.Equal(t, []string{"Hel", "lo!"}, deltas)
	assert.Equal(t, "Hello!", lastFull)
	assert.Equal(t, "Hello!", resp.Content)
	assert.Equal(t, llm.FinishReasonStop, resp.FinishReason)
}

func TestStreamSkipsMalformedLines(t *testing.T) {
	server := httptest.NewServer(sseHandler(t, []string{
		`{"choices": [{"delta": {"content": "ok "}}]}`,
		`{not json at all`,
		`{"choices": [{"delta": {"content": "still ok"}, "finish_reason": "stop"}]}`,
	}))
	defer server.Close()

	resp, err := newTestDispatcher(t).Stream(context.Background(), userRequest(server.URL, "conv-1"), nil)
	require.NoError(t, err)
	require.False(t, resp.Failed())
	assert.Equal(t, "ok still ok", resp.Content)
}

func TestStreamAssemblesToolCalls(t *testing.T) {
	server := httptest.NewServer(sseHandler(t, []string{
		`{"choices": [{"delta": {"tool_calls": [{"index": 0, "id": "call-1", "function": {"name": "get_weather", "arguments": "{\"city\""}}]}}]}`,
		`{"choices": [{"delta": {"tool_calls": [{"index": 0, "function": {"arguments": ": \"Oslo\"}"}}]}}]}`,
		`{"choices": [{"delta": {}, "finish_reason": "tool_calls"}]}`,
		`[DONE]`,
	}))
	defer server.Close()

	resp, err := newTestDispatcher(t).Stream(context.Background(), userRequest(server.URL, "conv-1"), nil)
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)

	assert.Equal(t, "get_weather", resp.ToolCalls[0].Name)
	assert.Equal(t, "Oslo", resp.ToolCalls[0].Arguments["city"])
	assert.Equal(t, llm.FinishReasonToolCalls, resp.FinishReason)
	assert.True(t, resp.RequiresToolExecution())
}

func TestStreamAbortKeepsPartialContent(t *testing.T) {
	firstChunkSent := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\": [{\"delta\": {\"content\": \"partial \"}}]}\n\n")
		flusher.Flush()
		close(firstChunkSent)
		// Hold the stream open until the client goes away
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-firstChunkSent
		// Give the client a moment to consume the chunk before cancelling
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	resp, err := newTestDispatcher(t).Stream(ctx, userRequest(server.URL, "conv-1"), nil)
	require.NoError(t, err)

	assert.True(t, resp.Aborted)
	assert.False(t, resp.Failed())
	assert.Equal(t, "partial ", resp.Content)
	assert.Equal(t, llm.FinishReasonAborted, resp.FinishReason)
}

func TestStreamAsyncConversationIsolation(t *testing.T) {
	holdA := make(chan struct{})
	aStarted := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")

		body, _ := io.ReadAll(r.Body)
		model := gjson.GetBytes(body, "model").String()

		if model == "model-a" {
			fmt.Fprint(w, "data: {\"choices\": [{\"delta\": {\"content\": \"A-part\"}}]}\n\n")
			flusher.Flush()
			close(aStarted)
			select {
			case <-holdA:
			case <-r.Context().Done():
			}
			return
		}
		fmt.Fprint(w, "data: {\"choices\": [{\"delta\": {\"content\": \"B-done\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\": [{\"delta\": {}, \"finish_reason\": \"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	defer server.Close()
	defer close(holdA)

	d := newTestDispatcher(t)

	type result struct {
		id   string
		resp *llm.Response
	}
	results := make(chan result, 2)
	onDone := func(id string, resp *llm.Response) {
		results <- result{id: id, resp: resp}
	}

	reqA := userRequest(server.URL, "conv-a")
	reqA.Model = "model-a"
	reqB := userRequest(server.URL, "conv-b")
	reqB.Model = "model-b"

	require.NoError(t, d.StreamAsync(context.Background(), reqA, nil, onDone))
	<-aStarted
	require.NoError(t, d.StreamAsync(context.Background(), reqB, nil, onDone))

	// B finishes on its own
	first := <-results
	// Aborting A must not touch B
	require.True(t, d.Abort("conv-a"))
	second := <-results

	byConv := map[string]*llm.Response{first.id: first.resp, second.id: second.resp}
	require.Contains(t, byConv, "conv-a")
	require.Contains(t, byConv, "conv-b")
	assert.True(t, byConv["conv-a"].Aborted)
	assert.Equal(t, "A-part", byConv["conv-a"].Content)
	assert.False(t, byConv["conv-b"].Aborted)
	assert.Equal(t, "B-done", byConv["conv-b"].Content)
}

func TestStreamAsyncRejectsConcurrentSameConversation(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	d := newTestDispatcher(t)
	req := userRequest(server.URL, "conv-busy")

	done := make(chan struct{})
	require.NoError(t, d.StreamAsync(context.Background(), req, nil,
		func(string, *llm.Response) { close(done) }))
	<-started

	err := d.StreamAsync(context.Background(), req, nil, nil)
	require.Error(t, err)

	d.Abort("conv-busy")
	<-done
}

func TestAbortUnknownConversation(t *testing.T) {
	assert.False(t, newTestDispatcher(t).Abort("never-started"))
}
