package tool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/voxgate/voxgate/agent/contract"
)

// Invocation is one requested tool call in the context of a conversation.
type Invocation struct {
	ConversationID string
	PersonaID      string
	Name           string
	Args           map[string]any
}

// Executor validates and runs tool calls, recording every attempt on the
// event log. A handler error, panic, or timeout becomes a failed ToolResult;
// nothing propagates to the caller.
type Executor struct {
	registry *Registry
	events   contractx.EventLog
}

func NewExecutor(registry *Registry, events contractx.EventLog) *Executor {
	return &Executor{registry: registry, events: events}
}

// Execute runs a single invocation. Validation failures are recorded without
// invoking the handler.
func (e *Executor) Execute(ctx context.Context, inv Invocation) contractx.ToolResult {
	def, err := e.registry.Get(inv.Name)
	if err != nil {
		return e.failed(ctx, inv, 0, err.Error())
	}
	if err := Validate(def, inv.Args); err != nil {
		log.Warn().
			Str("conversation_id", inv.ConversationID).
			Str("tool", inv.Name).
			Err(err).
			Msg("tool arguments rejected")
		return e.failed(ctx, inv, 0, err.Error())
	}

	e.appendEvent(ctx, inv.ConversationID, contractx.EventToolCallStart, map[string]any{
		"tool":       inv.Name,
		"persona_id": inv.PersonaID,
		"parameters": inv.Args,
	}, 0)
	recordID := e.recordStart(ctx, inv)

	start := time.Now()
	res := e.runWithTimeout(ctx, def, inv)
	res.Tool = inv.Name
	res.Duration = time.Since(start)

	status := contractx.ToolStatusSuccess
	if !res.Success {
		status = contractx.ToolStatusError
	}
	e.recordEnd(ctx, recordID, res)
	e.appendEvent(ctx, inv.ConversationID, contractx.EventToolCallEnd, map[string]any{
		"tool":   inv.Name,
		"status": status,
		"error":  res.Error,
	}, res.Duration)

	log.Info().
		Str("conversation_id", inv.ConversationID).
		Str("tool", inv.Name).
		Bool("success", res.Success).
		Dur("duration", res.Duration).
		Msg("tool executed")

	return res
}

// runWithTimeout wraps the handler in the definition's timeout. Cancellation
// is best-effort: a non-cooperative handler keeps running in its goroutine,
// but its result is discarded.
func (e *Executor) runWithTimeout(ctx context.Context, def *Definition, inv Invocation) contractx.ToolResult {
	timeout := def.timeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		res contractx.ToolResult
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: panic: %v", contractx.ErrToolExecution, r)}
			}
		}()
		res, err := def.Handler(ctx, inv.Args)
		done <- outcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return contractx.ToolResult{Success: false, Error: out.err.Error()}
		}
		return out.res
	case <-ctx.Done():
		return contractx.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("%s after %ds", contractx.ErrToolTimeout, int(timeout.Seconds())),
		}
	}
}

// ExecuteAll runs invocations sequentially, in order.
func (e *Executor) ExecuteAll(ctx context.Context, invs []Invocation) []contractx.ToolResult {
	results := make([]contractx.ToolResult, len(invs))
	for i, inv := range invs {
		results[i] = e.Execute(ctx, inv)
	}
	return results
}

// ExecuteConcurrent fans invocations out in parallel. One call's failure
// never cancels its siblings, and results come back in input order
// regardless of completion order.
func (e *Executor) ExecuteConcurrent(ctx context.Context, invs []Invocation) []contractx.ToolResult {
	results := make([]contractx.ToolResult, len(invs))
	var wg sync.WaitGroup
	for i, inv := range invs {
		wg.Add(1)
		go func(i int, inv Invocation) {
			defer wg.Done()
			results[i] = e.Execute(ctx, inv)
		}(i, inv)
	}
	wg.Wait()
	return results
}

func (e *Executor) failed(ctx context.Context, inv Invocation, latency time.Duration, msg string) contractx.ToolResult {
	e.appendEvent(ctx, inv.ConversationID, contractx.EventToolCallEnd, map[string]any{
		"tool":   inv.Name,
		"status": "error",
		"error":  msg,
	}, latency)
	return contractx.ToolResult{Tool: inv.Name, Success: false, Error: msg}
}

func (e *Executor) appendEvent(ctx context.Context, conversationID, eventType string, data map[string]any, latency time.Duration) {
	if e.events == nil {
		return
	}
	e.events.Append(ctx, conversationID, eventType, data, latency)
}

// recordStart opens a pending invocation record when the event log keeps
// per-call audit rows. Returns "" otherwise.
func (e *Executor) recordStart(ctx context.Context, inv Invocation) string {
	rec, ok := e.events.(contractx.ToolRecorder)
	if !ok {
		return ""
	}
	return rec.RecordToolInvocation(ctx, contractx.ToolInvocationRecord{
		ConversationID: inv.ConversationID,
		PersonaID:      inv.PersonaID,
		Tool:           inv.Name,
		Parameters:     inv.Args,
		Status:         contractx.ToolStatusPending,
	})
}

func (e *Executor) recordEnd(ctx context.Context, recordID string, res contractx.ToolResult) {
	if recordID == "" {
		return
	}
	rec, ok := e.events.(contractx.ToolRecorder)
	if !ok {
		return
	}
	rec.CompleteToolInvocation(ctx, recordID, res.Data, res.Error, res.Duration)
}
