package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/voxgate/voxgate/agent/contract"
)

type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

func (c PostgresConfig) Enabled() bool {
	return c.DSN != ""
}

// conversationEvent is the persisted timeline row. Seq breaks ties between
// rows sharing a timestamp so the timeline reads back in insertion order.
type conversationEvent struct {
	bun.BaseModel `bun:"table:conversation_events,alias:ce"`

	Seq            int64          `bun:"seq,pk,autoincrement"`
	ID             string         `bun:"id,notnull,unique"`
	ConversationID string         `bun:"conversation_id,notnull"`
	Type           string         `bun:"type,notnull"`
	Data           map[string]any `bun:"data,type:jsonb"`
	LatencyMS      int64          `bun:"latency_ms"`
	Timestamp      time.Time      `bun:"timestamp,notnull"`
}

// toolInvocation is the per-call audit row, pending until the executor
// settles it as success or error.
type toolInvocation struct {
	bun.BaseModel `bun:"table:tool_invocations,alias:ti"`

	ID             string         `bun:"id,pk"`
	ConversationID string         `bun:"conversation_id,notnull"`
	PersonaID      string         `bun:"persona_id"`
	Tool           string         `bun:"tool,notnull"`
	Parameters     map[string]any `bun:"parameters,type:jsonb"`
	Status         string         `bun:"status,notnull"`
	Result         map[string]any `bun:"result,type:jsonb"`
	Error          string         `bun:"error"`
	DurationMS     int64          `bun:"duration_ms"`
	StartedAt      time.Time      `bun:"started_at,notnull"`
	CompletedAt    time.Time      `bun:"completed_at,nullzero"`
}

// BunEventLog persists conversation timelines to Postgres. Append swallows
// write failures after logging them so a database outage never fails a turn.
type BunEventLog struct {
	db      *bun.DB
	timeout time.Duration
	now     func() time.Time
}

var (
	_ contractx.EventLog     = (*BunEventLog)(nil)
	_ contractx.ToolRecorder = (*BunEventLog)(nil)
)

func NewBunEventLog(ctx context.Context, cfg PostgresConfig) (*BunEventLog, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("eventlog: ping postgres: %w", err)
	}

	l := &BunEventLog{db: db, timeout: cfg.Timeout, now: time.Now}
	if err := l.createTables(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *BunEventLog) createTables(ctx context.Context) error {
	for _, model := range []any{
		(*conversationEvent)(nil),
		(*toolInvocation)(nil),
	} {
		if _, err := l.db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("eventlog: create tables: %w", err)
		}
	}
	return nil
}

func (l *BunEventLog) Append(ctx context.Context, conversationID string, eventType string, data map[string]any, latency time.Duration) {
	// Detached from the caller's context so a cancelled turn still records
	// what happened before cancellation.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
	defer cancel()

	ev := &conversationEvent{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Type:           eventType,
		Data:           data,
		LatencyMS:      latency.Milliseconds(),
		Timestamp:      l.now(),
	}
	if _, err := l.db.NewInsert().Model(ev).Exec(writeCtx); err != nil {
		log.Error().
			Err(err).
			Str("conversation_id", conversationID).
			Str("event_type", eventType).
			Msg("event write failed")
	}
}

// RecordToolInvocation opens a pending audit row. Like Append it never fails
// the caller; a write error yields an empty id and a log line.
func (l *BunEventLog) RecordToolInvocation(ctx context.Context, rec contractx.ToolInvocationRecord) string {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
	defer cancel()

	row := &toolInvocation{
		ID:             uuid.NewString(),
		ConversationID: rec.ConversationID,
		PersonaID:      rec.PersonaID,
		Tool:           rec.Tool,
		Parameters:     rec.Parameters,
		Status:         contractx.ToolStatusPending,
		StartedAt:      l.now(),
	}
	if _, err := l.db.NewInsert().Model(row).Exec(writeCtx); err != nil {
		log.Error().
			Err(err).
			Str("conversation_id", rec.ConversationID).
			Str("tool", rec.Tool).
			Msg("tool invocation write failed")
		return ""
	}
	return row.ID
}

func (l *BunEventLog) CompleteToolInvocation(ctx context.Context, id string, result map[string]any, errMsg string, duration time.Duration) {
	if id == "" {
		return
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
	defer cancel()

	status := contractx.ToolStatusSuccess
	if errMsg != "" {
		status = contractx.ToolStatusError
	}
	if _, err := l.db.NewUpdate().
		Model((*toolInvocation)(nil)).
		Set("status = ?", status).
		Set("result = ?", result).
		Set("error = ?", errMsg).
		Set("duration_ms = ?", duration.Milliseconds()).
		Set("completed_at = ?", l.now()).
		Where("id = ?", id).
		Exec(writeCtx); err != nil {
		log.Error().
			Err(err).
			Str("invocation_id", id).
			Msg("tool invocation update failed")
	}
}

// ToolInvocations returns a conversation's audit rows in start order.
func (l *BunEventLog) ToolInvocations(ctx context.Context, conversationID string) ([]contractx.ToolInvocationRecord, error) {
	var rows []toolInvocation
	if err := l.db.NewSelect().
		Model(&rows).
		Where("conversation_id = ?", conversationID).
		Order("started_at ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("eventlog: read tool invocations: %w", err)
	}

	out := make([]contractx.ToolInvocationRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, contractx.ToolInvocationRecord{
			ID:             row.ID,
			ConversationID: row.ConversationID,
			PersonaID:      row.PersonaID,
			Tool:           row.Tool,
			Parameters:     row.Parameters,
			Status:         row.Status,
			Result:         row.Result,
			Error:          row.Error,
			Duration:       time.Duration(row.DurationMS) * time.Millisecond,
			StartedAt:      row.StartedAt,
			CompletedAt:    row.CompletedAt,
		})
	}
	return out, nil
}

func (l *BunEventLog) ReadTimeline(ctx context.Context, conversationID string) ([]contractx.Event, error) {
	var rows []conversationEvent
	if err := l.db.NewSelect().
		Model(&rows).
		Where("conversation_id = ?", conversationID).
		Order("timestamp ASC", "seq ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("eventlog: read timeline: %w", err)
	}

	out := make([]contractx.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, contractx.Event{
			ID:             row.ID,
			ConversationID: row.ConversationID,
			Type:           row.Type,
			Data:           row.Data,
			Latency:        time.Duration(row.LatencyMS) * time.Millisecond,
			Timestamp:      row.Timestamp,
		})
	}
	return out, nil
}

func (l *BunEventLog) Close() error {
	return l.db.Close()
}
