package contract

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
)

// ChatModel is the opaque language model collaborator. Given system
// instructions, a bounded conversation history, and the tool schemas the
// active persona may use, it returns reply text and/or tool call requests.
type ChatModel interface {
	Generate(ctx context.Context, instructions string, history []Turn, tools []*schema.ToolInfo) (ModelOutput, error)
}

// Classifier labels a user utterance with intent and sentiment. A zero
// Classification is a valid "no signal" answer; classification failures
// must degrade, never fail the turn.
type Classifier interface {
	Classify(ctx context.Context, text string, history []Turn) (Classification, error)
}

// EventLog records the per-conversation timeline. Append is fire-and-forget
// from the orchestrator's perspective: implementations log and swallow their
// own failures.
type EventLog interface {
	Append(ctx context.Context, conversationID string, eventType string, data map[string]any, latency time.Duration)
	ReadTimeline(ctx context.Context, conversationID string) ([]Event, error)
}

// ToolRecorder persists a per-call audit record alongside the event
// timeline. Event logs may implement it; stores that do not still see the
// tool_call_start/tool_call_end events.
type ToolRecorder interface {
	// RecordToolInvocation stores a pending record and returns its id.
	RecordToolInvocation(ctx context.Context, rec ToolInvocationRecord) string
	// CompleteToolInvocation settles the record as success or error.
	CompleteToolInvocation(ctx context.Context, id string, result map[string]any, errMsg string, duration time.Duration)
}

// ToolInvocationRecord tracks one tool call from pending through completion.
type ToolInvocationRecord struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	PersonaID      string         `json:"persona_id,omitempty"`
	Tool           string         `json:"tool"`
	Parameters     map[string]any `json:"parameters,omitempty"`
	Status         string         `json:"status"`
	Result         map[string]any `json:"result,omitempty"`
	Error          string         `json:"error,omitempty"`
	Duration       time.Duration  `json:"duration,omitempty"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    time.Time      `json:"completed_at,omitempty"`
}

// Tool invocation record statuses.
const (
	ToolStatusPending = "pending"
	ToolStatusSuccess = "success"
	ToolStatusError   = "error"
)

// Event is one immutable timeline entry.
type Event struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	Type           string         `json:"type"`
	Data           map[string]any `json:"data,omitempty"`
	Latency        time.Duration  `json:"latency,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

// Event types appended by the orchestrator and tool executor.
const (
	EventConversationStarted = "conversation_started"
	EventTurnRecorded        = "turn_recorded"
	EventAgentTransferred    = "agent_transferred"
	EventToolCallStart       = "tool_call_start"
	EventToolCallEnd         = "tool_call_end"
	EventConversationEnded   = "conversation_ended"
	EventWarning             = "warning"
	EventError               = "error"
)
