// Package dispatch routes canonical requests through provider adapters and
// drives blocking and streaming HTTP exchanges. It owns the transport, the
// SSE plumbing, and per-conversation call lifecycles; adapters stay pure
// translators.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/JulesLiu390/PetGPT-sub001/pkg/factory"
	"github.com/JulesLiu390/PetGPT-sub001/pkg/llm"
)

// Request carries everything needed for one model call
type Request struct {
	ConversationID string
	APIFormat      llm.APIFormat
	Provider       string
	Model          string
	APIKey         string
	BaseURL        string
	Messages       []llm.Message
	Temperature    *float32
	MaxTokens      *int
	Tools          []llm.Tool
	ToolChoice     string
	Format         *llm.ResponseFormat
}

// OnChunk is invoked for every text delta of a streaming call. It receives
// the delta and the full text accumulated so far, keyed by conversation.
type OnChunk func(conversationID, delta, fullText string)

// Dispatcher is the facade callers talk to. Safe for concurrent use; each
// call runs independently and conversations are isolated by ID.
type Dispatcher struct {
	client   *resty.Client
	adapters map[llm.APIFormat]llm.Adapter
	logger   zerolog.Logger

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

// Option configures a Dispatcher
type Option func(*options)

type options struct {
	client *resty.Client
	files  llm.FileReader
	logger zerolog.Logger
}

// WithClient supplies a pre-configured resty client
func WithClient(client *resty.Client) Option {
	return func(o *options) { o.client = client }
}

// WithFileReader supplies the reader adapters use to resolve local
// attachments
func WithFileReader(files llm.FileReader) Option {
	return func(o *options) { o.files = files }
}

// WithLogger supplies the logger for transport and stream diagnostics
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a Dispatcher with adapters for every registered wire format
func New(opts ...Option) (*Dispatcher, error) {
	o := options{
		files:  llm.NewOSFileReader(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		o.client = resty.New().SetTimeout(5 * time.Minute)
	}

	adapters, err := factory.NewAdapters(llm.AdapterConfig{Files: o.files, Logger: o.logger})
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		client:   o.client,
		adapters: adapters,
		logger:   o.logger,
		active:   make(map[string]context.CancelFunc),
	}, nil
}

func (d *Dispatcher) adapter(format llm.APIFormat) (llm.Adapter, error) {
	adapter, ok := d.adapters[format]
	if !ok {
		return nil, fmt.Errorf("no adapter for format %q", format)
	}
	return adapter, nil
}

func providerRequest(req Request, stream bool) *llm.ProviderRequest {
	return &llm.ProviderRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		APIKey:      req.APIKey,
		BaseURL:     req.BaseURL,
		Provider:    req.Provider,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
		Tools:       req.Tools,
		ToolChoice:  req.ToolChoice,
		Format:      req.Format,
	}
}

// Call performs a blocking (non-streaming) exchange. The returned error is
// non-nil only for caller mistakes (unknown format, invalid request);
// runtime failures come back inside the Response.
func (d *Dispatcher) Call(ctx context.Context, req Request) (*llm.Response, error) {
	adapter, err := d.adapter(req.APIFormat)
	if err != nil {
		return nil, err
	}
	env, err := adapter.BuildRequest(ctx, providerRequest(req, false))
	if err != nil {
		return nil, err
	}

	d.logger.Debug().
		Str("conversation_id", req.ConversationID).
		Str("format", string(req.APIFormat)).
		Str("model", req.Model).
		Msg("dispatching call")

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeaders(env.Headers).
		SetBody(env.Body).
		Post(env.Endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return &llm.Response{Aborted: true, FinishReason: llm.FinishReasonAborted}, nil
		}
		return llm.ErrorResponse(llm.NewNetworkError(0, "request failed: %v", err)), nil
	}

	if resp.IsError() {
		return d.httpErrorResponse(adapter, resp.StatusCode(), resp.Body()), nil
	}
	return adapter.ParseResponse(resp.Body())
}

// Stream performs a streaming exchange, invoking onChunk for every text
// delta. Cancelling ctx mid-stream yields an aborted response carrying the
// text accumulated so far; an abort is not a failure.
func (d *Dispatcher) Stream(ctx context.Context, req Request, onChunk OnChunk) (*llm.Response, error) {
	adapter, err := d.adapter(req.APIFormat)
	if err != nil {
		return nil, err
	}
	env, err := adapter.BuildRequest(ctx, providerRequest(req, true))
	if err != nil {
		return nil, err
	}

	d.logger.Debug().
		Str("conversation_id", req.ConversationID).
		Str("format", string(req.APIFormat)).
		Str("model", req.Model).
		Msg("dispatching stream")

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeaders(env.Headers).
		SetBody(env.Body).
		SetDoNotParseResponse(true).
		Post(env.Endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return &llm.Response{Aborted: true, FinishReason: llm.FinishReasonAborted}, nil
		}
		return llm.ErrorResponse(llm.NewNetworkError(0, "request failed: %v", err)), nil
	}
	raw := resp.RawBody()
	defer raw.Close()

	if resp.IsError() {
		body, _ := io.ReadAll(raw)
		return d.httpErrorResponse(adapter, resp.StatusCode(), body), nil
	}
	return d.consumeStream(ctx, req.ConversationID, adapter, raw, onChunk)
}

func (d *Dispatcher) consumeStream(ctx context.Context, conversationID string, adapter llm.Adapter, reader io.Reader, onChunk OnChunk) (*llm.Response, error) {
	var full strings.Builder
	var usage llm.Usage
	acc := newToolCallAccumulator()
	lines := &lineBuffer{}
	buf := make([]byte, 4096)
	finish := ""

readLoop:
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			for _, line := range lines.Feed(buf[:n]) {
				payload, ok := dataPayload(line)
				if !ok {
					continue
				}
				chunk, perr := adapter.ParseStreamData(payload)
				if perr != nil {
					d.logger.Warn().
						Err(perr).
						Str("conversation_id", conversationID).
						Msg("skipping malformed stream line")
					continue
				}

				if chunk.Usage != nil {
					usage = *chunk.Usage
				}
				if chunk.DeltaText != "" {
					full.WriteString(chunk.DeltaText)
					if onChunk != nil {
						onChunk(conversationID, chunk.DeltaText, full.String())
					}
				}
				acc.AddDeltas(chunk.DeltaToolCalls)
				acc.AddComplete(chunk.ToolCalls)

				if chunk.Err != nil {
					return &llm.Response{
						Content:      full.String(),
						FinishReason: chunk.FinishReason,
						Usage:        usage,
						Err:          chunk.Err,
					}, nil
				}
				if chunk.Done {
					finish = chunk.FinishReason
					break readLoop
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if ctx.Err() != nil {
				return &llm.Response{
					Content:      full.String(),
					FinishReason: llm.FinishReasonAborted,
					Usage:        usage,
					Aborted:      true,
				}, nil
			}
			return &llm.Response{
				Content:      full.String(),
				FinishReason: llm.FinishReasonError,
				Usage:        usage,
				Err:          llm.NewNetworkError(0, "stream read failed: %v", err),
			}, nil
		}
	}

	out := &llm.Response{
		Content:      full.String(),
		ToolCalls:    acc.Calls(),
		FinishReason: finish,
		Usage:        usage,
	}
	if len(out.ToolCalls) > 0 {
		out.FinishReason = llm.FinishReasonToolCalls
	}
	if out.FinishReason == "" {
		out.FinishReason = llm.FinishReasonStop
	}
	return out, nil
}

// httpErrorResponse turns a non-2xx body into a response-level error. A
// structured provider error in the body wins over the plain status code.
func (d *Dispatcher) httpErrorResponse(adapter llm.Adapter, statusCode int, body []byte) *llm.Response {
	parsed, _ := adapter.ParseResponse(body)
	if parsed != nil && parsed.Failed() && !parsed.Err.IsParse() {
		if parsed.Err.StatusCode == 0 {
			parsed.Err.StatusCode = statusCode
		}
		return parsed
	}
	snippet := string(body)
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return llm.ErrorResponse(llm.NewNetworkError(statusCode, "request failed with status %d: %s", statusCode, snippet))
}

// StreamAsync runs a streaming call on its own goroutine, keyed by
// conversation ID so it can be aborted independently. One call per
// conversation may be in flight at a time; onDone always fires exactly once
// with the final response.
func (d *Dispatcher) StreamAsync(ctx context.Context, req Request, onChunk OnChunk, onDone func(conversationID string, resp *llm.Response)) error {
	if req.ConversationID == "" {
		return fmt.Errorf("conversation ID is required for async streaming")
	}

	d.mu.Lock()
	if _, busy := d.active[req.ConversationID]; busy {
		d.mu.Unlock()
		return fmt.Errorf("conversation %q already has a call in flight", req.ConversationID)
	}
	callCtx, cancel := context.WithCancel(ctx)
	d.active[req.ConversationID] = cancel
	d.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			d.mu.Lock()
			delete(d.active, req.ConversationID)
			d.mu.Unlock()
		}()

		resp, err := d.Stream(callCtx, req, onChunk)
		if err != nil {
			var lerr *llm.Error
			if !errors.As(err, &lerr) {
				lerr = llm.NewValidationError("bad_request", "%v", err)
			}
			resp = llm.ErrorResponse(lerr)
		}
		if onDone != nil {
			onDone(req.ConversationID, resp)
		}
	}()
	return nil
}

// Abort cancels the in-flight call for a conversation. Returns false when
// nothing is in flight for that ID. Other conversations are unaffected.
func (d *Dispatcher) Abort(conversationID string) bool {
	d.mu.Lock()
	cancel, ok := d.active[conversationID]
	d.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}
