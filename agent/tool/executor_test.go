package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/voxgate/voxgate/agent/contract"
)

type fakeEventLog struct {
	mu      sync.Mutex
	events  []contractx.Event
	records []contractx.ToolInvocationRecord
}

func (f *fakeEventLog) Append(ctx context.Context, conversationID string, eventType string, data map[string]any, latency time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, contractx.Event{
		ConversationID: conversationID,
		Type:           eventType,
		Data:           data,
		Latency:        latency,
	})
}

func (f *fakeEventLog) ReadTimeline(ctx context.Context, conversationID string) ([]contractx.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]contractx.Event(nil), f.events...), nil
}

func (f *fakeEventLog) RecordToolInvocation(ctx context.Context, rec contractx.ToolInvocationRecord) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = fmt.Sprintf("rec-%d", len(f.records)+1)
	rec.Status = contractx.ToolStatusPending
	f.records = append(f.records, rec)
	return rec.ID
}

func (f *fakeEventLog) CompleteToolInvocation(ctx context.Context, id string, result map[string]any, errMsg string, duration time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.records {
		if f.records[i].ID != id {
			continue
		}
		f.records[i].Duration = duration
		if errMsg != "" {
			f.records[i].Status = contractx.ToolStatusError
			f.records[i].Error = errMsg
		} else {
			f.records[i].Status = contractx.ToolStatusSuccess
			f.records[i].Result = result
		}
	}
}

func (f *fakeEventLog) typeCount(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, ev := range f.events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

func TestExecuteSuccess(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register(&Definition{
		Name: "greet",
		Params: map[string]*schema.ParameterInfo{
			"name": {Type: schema.String, Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			return contractx.ToolResult{
				Success: true,
				Data:    map[string]any{"name": args["name"]},
				Message: "Hello!",
			}, nil
		},
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	events := &fakeEventLog{}
	e := NewExecutor(r, events)

	res := e.Execute(context.Background(), Invocation{
		ConversationID: "conv-1",
		Name:           "greet",
		Args:           map[string]any{"name": "Jordan"},
	})
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Tool != "greet" {
		t.Fatalf("result must name its tool, got %q", res.Tool)
	}
	if res.Message != "Hello!" {
		t.Fatalf("message lost: %q", res.Message)
	}
	if events.typeCount(contractx.EventToolCallStart) != 1 || events.typeCount(contractx.EventToolCallEnd) != 1 {
		t.Fatalf("expected start+end events, got %+v", events.events)
	}
}

func TestExecuteValidationFailureSkipsHandler(t *testing.T) {
	t.Parallel()

	invoked := false
	r := NewRegistry()
	if err := r.Register(&Definition{
		Name: "book",
		Params: map[string]*schema.ParameterInfo{
			"date": {Type: schema.String, Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			invoked = true
			return contractx.ToolResult{Success: true}, nil
		},
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	events := &fakeEventLog{}
	e := NewExecutor(r, events)

	res := e.Execute(context.Background(), Invocation{ConversationID: "conv-2", Name: "book"})
	if res.Success {
		t.Fatal("expected validation failure")
	}
	if invoked {
		t.Fatal("handler must not run on validation failure")
	}
	if !strings.Contains(res.Error, "date") {
		t.Fatalf("error must name the missing parameter: %q", res.Error)
	}
	if events.typeCount(contractx.EventToolCallStart) != 0 {
		t.Fatal("no start event for a rejected call")
	}
	if events.typeCount(contractx.EventToolCallEnd) != 1 {
		t.Fatal("rejected call must still record an end event")
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	t.Parallel()

	e := NewExecutor(NewRegistry(), nil)
	res := e.Execute(context.Background(), Invocation{ConversationID: "conv-3", Name: "ghost"})
	if res.Success {
		t.Fatal("expected failure for unknown tool")
	}
	if !strings.Contains(res.Error, "ghost") {
		t.Fatalf("error must name the tool: %q", res.Error)
	}
}

func TestExecuteHandlerErrorAndPanic(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register(&Definition{
		Name: "failing",
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			return contractx.ToolResult{}, errors.New("backend down")
		},
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(&Definition{
		Name: "panicking",
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			panic("boom")
		},
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	e := NewExecutor(r, nil)

	res := e.Execute(context.Background(), Invocation{ConversationID: "conv-4", Name: "failing"})
	if res.Success || !strings.Contains(res.Error, "backend down") {
		t.Fatalf("unexpected result: %+v", res)
	}

	res = e.Execute(context.Background(), Invocation{ConversationID: "conv-4", Name: "panicking"})
	if res.Success || !strings.Contains(res.Error, "boom") {
		t.Fatalf("panic must become a failed result: %+v", res)
	}
}

func TestExecuteTimeout(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register(&Definition{
		Name:    "slow",
		Timeout: 50 * time.Millisecond,
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			select {
			case <-time.After(5 * time.Second):
				return contractx.ToolResult{Success: true}, nil
			case <-ctx.Done():
				return contractx.ToolResult{}, ctx.Err()
			}
		},
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	e := NewExecutor(r, nil)
	res := e.Execute(context.Background(), Invocation{ConversationID: "conv-5", Name: "slow"})
	if res.Success {
		t.Fatal("expected timeout failure")
	}
	if !strings.Contains(res.Error, "timed out") {
		t.Fatalf("unexpected error: %q", res.Error)
	}
}

func TestExecuteKeepsInvocationRecords(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register(&Definition{
		Name: "lookup",
		Params: map[string]*schema.ParameterInfo{
			"phone": {Type: schema.String, Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			return contractx.ToolResult{Success: true, Data: map[string]any{"found": true}}, nil
		},
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(&Definition{
		Name: "broken",
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			return contractx.ToolResult{}, errors.New("backend down")
		},
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	events := &fakeEventLog{}
	e := NewExecutor(r, events)

	e.Execute(context.Background(), Invocation{
		ConversationID: "conv-8",
		PersonaID:      "support",
		Name:           "lookup",
		Args:           map[string]any{"phone": "555-0100"},
	})
	e.Execute(context.Background(), Invocation{ConversationID: "conv-8", Name: "broken"})

	// A call rejected by validation never opens a record.
	e.Execute(context.Background(), Invocation{ConversationID: "conv-8", Name: "lookup"})

	if len(events.records) != 2 {
		t.Fatalf("expected 2 invocation records, got %d", len(events.records))
	}

	rec := events.records[0]
	if rec.Status != contractx.ToolStatusSuccess {
		t.Fatalf("expected success record, got %q", rec.Status)
	}
	if rec.Tool != "lookup" || rec.PersonaID != "support" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Parameters["phone"] != "555-0100" {
		t.Fatalf("parameters must be captured at start, got %v", rec.Parameters)
	}
	if rec.Result["found"] != true {
		t.Fatalf("result must be captured at completion, got %v", rec.Result)
	}

	rec = events.records[1]
	if rec.Status != contractx.ToolStatusError {
		t.Fatalf("expected error record, got %q", rec.Status)
	}
	if !strings.Contains(rec.Error, "backend down") {
		t.Fatalf("record must carry the handler error, got %q", rec.Error)
	}
}

func TestExecuteConcurrentPreservesOrderAndIsolation(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register(&Definition{
		Name: "slow_ok",
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			time.Sleep(80 * time.Millisecond)
			return contractx.ToolResult{Success: true, Data: map[string]any{"order": "first"}}, nil
		},
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(&Definition{
		Name: "fast_fail",
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			return contractx.ToolResult{}, errors.New("instant failure")
		},
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	e := NewExecutor(r, nil)
	results := e.ExecuteConcurrent(context.Background(), []Invocation{
		{ConversationID: "conv-6", Name: "slow_ok"},
		{ConversationID: "conv-6", Name: "fast_fail"},
	})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	// The slow call finishes last but stays first in the results.
	if results[0].Tool != "slow_ok" || !results[0].Success {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	if results[1].Tool != "fast_fail" || results[1].Success {
		t.Fatalf("unexpected second result: %+v", results[1])
	}
}

func TestBuiltinBookAppointmentMessage(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	deps := BuiltinDeps{
		Now:   func() time.Time { return time.Date(2026, 2, 15, 9, 0, 0, 0, time.UTC) },
		NewID: func(prefix string, n int) string { return prefix + "FIXED1" },
	}
	if err := RegisterBuiltin(r, deps); err != nil {
		t.Fatalf("RegisterBuiltin() error = %v", err)
	}

	e := NewExecutor(r, nil)
	res := e.Execute(context.Background(), Invocation{
		ConversationID: "conv-7",
		Name:           "book_appointment",
		Args: map[string]any{
			"date": "2026-02-15",
			"time": "10:00",
			"name": "Jordan",
		},
	})
	if !res.Success {
		t.Fatalf("booking failed: %q", res.Error)
	}
	want := "I've booked your appointment for 2026-02-15 at 10:00. Your confirmation number is APT-FIXED1."
	if res.Message != want {
		t.Fatalf("unexpected message:\n got %q\nwant %q", res.Message, want)
	}
	if res.Data["confirmation_number"] != "APT-FIXED1" {
		t.Fatalf("unexpected confirmation: %v", res.Data["confirmation_number"])
	}
}
