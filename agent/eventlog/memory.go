package eventlog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	contractx "github.com/voxgate/voxgate/agent/contract"
)

// MemoryEventLog keeps timelines in process memory. Used in tests and when
// no database is configured.
type MemoryEventLog struct {
	mu          sync.Mutex
	events      map[string][]contractx.Event
	invocations map[string][]contractx.ToolInvocationRecord
	now         func() time.Time
}

var (
	_ contractx.EventLog     = (*MemoryEventLog)(nil)
	_ contractx.ToolRecorder = (*MemoryEventLog)(nil)
)

func NewMemoryEventLog() *MemoryEventLog {
	return &MemoryEventLog{
		events:      make(map[string][]contractx.Event),
		invocations: make(map[string][]contractx.ToolInvocationRecord),
		now:         time.Now,
	}
}

func (l *MemoryEventLog) Append(ctx context.Context, conversationID string, eventType string, data map[string]any, latency time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events[conversationID] = append(l.events[conversationID], contractx.Event{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Type:           eventType,
		Data:           data,
		Latency:        latency,
		Timestamp:      l.now(),
	})
}

func (l *MemoryEventLog) ReadTimeline(ctx context.Context, conversationID string) ([]contractx.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	src := l.events[conversationID]
	out := make([]contractx.Event, len(src))
	copy(out, src)
	return out, nil
}

func (l *MemoryEventLog) RecordToolInvocation(ctx context.Context, rec contractx.ToolInvocationRecord) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec.ID = uuid.NewString()
	rec.Status = contractx.ToolStatusPending
	rec.StartedAt = l.now()
	l.invocations[rec.ConversationID] = append(l.invocations[rec.ConversationID], rec)
	return rec.ID
}

func (l *MemoryEventLog) CompleteToolInvocation(ctx context.Context, id string, result map[string]any, errMsg string, duration time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, recs := range l.invocations {
		for i := range recs {
			if recs[i].ID != id {
				continue
			}
			recs[i].CompletedAt = l.now()
			recs[i].Duration = duration
			if errMsg != "" {
				recs[i].Status = contractx.ToolStatusError
				recs[i].Error = errMsg
			} else {
				recs[i].Status = contractx.ToolStatusSuccess
				recs[i].Result = result
			}
			return
		}
	}
}

// ToolInvocations returns a conversation's audit records in start order.
func (l *MemoryEventLog) ToolInvocations(conversationID string) []contractx.ToolInvocationRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	src := l.invocations[conversationID]
	out := make([]contractx.ToolInvocationRecord, len(src))
	copy(out, src)
	return out
}

// CountByType returns how many events of each type a conversation has.
// Test helper and debugging aid.
func (l *MemoryEventLog) CountByType(conversationID string) map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	counts := make(map[string]int)
	for _, ev := range l.events[conversationID] {
		counts[ev.Type]++
	}
	return counts
}
