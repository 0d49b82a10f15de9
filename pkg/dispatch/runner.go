package dispatch

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/JulesLiu390/PetGPT-sub001/pkg/llm"
)

// DefaultMaxToolRounds bounds how many tool round trips one turn may take
const DefaultMaxToolRounds = 8

// ToolExecutor runs one tool call and returns its result as text. Execution
// failures are returned as errors; the runner feeds them back to the model
// instead of failing the turn.
type ToolExecutor interface {
	Execute(ctx context.Context, call llm.ToolCall) (string, error)
}

// ToolExecutorFunc adapts a function to the ToolExecutor interface
type ToolExecutorFunc func(ctx context.Context, call llm.ToolCall) (string, error)

func (f ToolExecutorFunc) Execute(ctx context.Context, call llm.ToolCall) (string, error) {
	return f(ctx, call)
}

// ToolRunner drives the request/tool-call/result loop until the model
// produces a final answer. Intermediate messages are flagged as part of the
// active loop so adapters replay them even without provider continuation
// metadata.
type ToolRunner struct {
	dispatcher *Dispatcher
	executor   ToolExecutor
	maxRounds  int
	logger     zerolog.Logger
}

// NewToolRunner creates a runner on top of a dispatcher
func NewToolRunner(dispatcher *Dispatcher, executor ToolExecutor) *ToolRunner {
	return &ToolRunner{
		dispatcher: dispatcher,
		executor:   executor,
		maxRounds:  DefaultMaxToolRounds,
		logger:     dispatcher.logger,
	}
}

// WithMaxRounds overrides the round limit
func (r *ToolRunner) WithMaxRounds(n int) *ToolRunner {
	r.maxRounds = n
	return r
}

// Run executes the tool loop. When onChunk is non-nil each round streams;
// otherwise rounds are blocking calls. The returned response is the model's
// final answer, or the last response when the round limit is hit.
func (r *ToolRunner) Run(ctx context.Context, req Request, onChunk OnChunk) (*llm.Response, error) {
	messages := make([]llm.Message, len(req.Messages))
	copy(messages, req.Messages)

	var resp *llm.Response
	var err error

	for round := 0; round <= r.maxRounds; round++ {
		req.Messages = messages
		if onChunk != nil {
			resp, err = r.dispatcher.Stream(ctx, req, onChunk)
		} else {
			resp, err = r.dispatcher.Call(ctx, req)
		}
		if err != nil {
			return nil, err
		}
		if resp.Failed() || resp.Aborted || !resp.RequiresToolExecution() {
			return resp, nil
		}
		if round == r.maxRounds {
			r.logger.Warn().
				Str("conversation_id", req.ConversationID).
				Int("rounds", round).
				Msg("tool round limit reached, returning last response")
			return resp, nil
		}

		messages = append(messages, r.assistantTurn(resp))
		messages = append(messages, r.executeCalls(ctx, req.ConversationID, resp.ToolCalls)...)
	}
	return resp, nil
}

// assistantTurn converts a tool-requesting response back into a history
// message for the next round
func (r *ToolRunner) assistantTurn(resp *llm.Response) llm.Message {
	msg := llm.Message{Role: llm.RoleAssistant, ToolCalls: resp.ToolCalls}
	if resp.Content != "" {
		msg.Content = []llm.MessageContent{llm.NewTextContent(resp.Content)}
	}
	msg.MarkActiveToolLoop()
	return msg
}

func (r *ToolRunner) executeCalls(ctx context.Context, conversationID string, calls []llm.ToolCall) []llm.Message {
	out := make([]llm.Message, 0, len(calls))
	for _, call := range calls {
		result, err := r.executor.Execute(ctx, call)
		if err != nil {
			r.logger.Warn().
				Err(err).
				Str("conversation_id", conversationID).
				Str("tool", call.Name).
				Msg("tool execution failed")
			result = "Error: " + err.Error()
		}

		msg := llm.NewTextMessage(llm.RoleTool, result)
		msg.ToolCallID = call.ID
		msg.MarkActiveToolLoop()
		out = append(out, msg)
	}
	return out
}
