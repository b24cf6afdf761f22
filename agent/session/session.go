package session

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/voxgate/voxgate/agent/contract"
)

// MaxHistoryTurns bounds the in-session conversation history. Older turns
// are dropped first (FIFO), not summarized.
const MaxHistoryTurns = 50

// Session is the persistent source-of-truth for one conversation: which
// persona is handling it, the bounded turn history, collected slots, and the
// most recent intent/sentiment labels.
type Session struct {
	ID             string `json:"id"`
	CurrentPersona string `json:"current_persona"`

	History   []contractx.Turn  `json:"history,omitempty"`
	Slots     map[string]any    `json:"slots,omitempty"`
	Intent    string            `json:"intent,omitempty"`
	Sentiment string            `json:"sentiment,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`

	Ended     bool      `json:"ended,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func New(id, personaID string, metadata map[string]string, now time.Time) *Session {
	if metadata == nil {
		metadata = map[string]string{}
	}
	return &Session{
		ID:             id,
		CurrentPersona: personaID,
		Slots:          make(map[string]any, 8),
		Metadata:       metadata,
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// AppendTurn adds a turn to the history, dropping the oldest turns beyond
// MaxHistoryTurns.
func (s *Session) AppendTurn(t contractx.Turn) {
	s.History = append(s.History, t)
	if len(s.History) > MaxHistoryTurns {
		s.History = s.History[len(s.History)-MaxHistoryTurns:]
	}
}

// BoundedHistory returns at most n of the most recent turns.
func (s *Session) BoundedHistory(n int) []contractx.Turn {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

func (s *Session) SetSlot(key string, val any) {
	if s.Slots == nil {
		s.Slots = make(map[string]any, 8)
	}
	s.Slots[key] = val
}

func (s *Session) Slot(key string) (any, bool) {
	if s.Slots == nil {
		return nil, false
	}
	v, ok := s.Slots[key]
	return v, ok
}

// ApplyClassification overwrites the intent/sentiment labels; empty fields
// leave the previous label in place.
func (s *Session) ApplyClassification(c contractx.Classification) {
	if c.Intent != "" {
		s.Intent = c.Intent
	}
	if c.Sentiment != "" {
		s.Sentiment = c.Sentiment
	}
}

func (s *Session) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return contractx.ErrInvalidConversation
	}
	if strings.TrimSpace(s.CurrentPersona) == "" {
		return fmt.Errorf("%w: session %s has no current persona", contractx.ErrPersonaNotFound, s.ID)
	}
	if len(s.History) > MaxHistoryTurns {
		return fmt.Errorf("history exceeds %d turns", MaxHistoryTurns)
	}
	return nil
}

// Clone deep-copies the session so callers can mutate independently.
func (s *Session) Clone() *Session {
	clone := *s
	clone.History = make([]contractx.Turn, len(s.History))
	copy(clone.History, s.History)
	clone.Slots = make(map[string]any, len(s.Slots))
	for k, v := range s.Slots {
		clone.Slots[k] = v
	}
	clone.Metadata = make(map[string]string, len(s.Metadata))
	for k, v := range s.Metadata {
		clone.Metadata[k] = v
	}
	return &clone
}
