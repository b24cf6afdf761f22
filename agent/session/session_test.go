package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	contractx "github.com/voxgate/voxgate/agent/contract"
)

func TestAppendTurnCapsHistory(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := New("conv-1", "front_desk", nil, now)

	for i := 0; i < MaxHistoryTurns+1; i++ {
		s.AppendTurn(contractx.Turn{
			Role:      contractx.RoleUser,
			Content:   fmt.Sprintf("turn-%d", i),
			Timestamp: now,
		})
	}

	if len(s.History) != MaxHistoryTurns {
		t.Fatalf("expected %d turns, got %d", MaxHistoryTurns, len(s.History))
	}
	if s.History[0].Content != "turn-1" {
		t.Fatalf("expected oldest turn dropped, head is %q", s.History[0].Content)
	}
	if s.History[len(s.History)-1].Content != fmt.Sprintf("turn-%d", MaxHistoryTurns) {
		t.Fatalf("unexpected newest turn: %q", s.History[len(s.History)-1].Content)
	}
}

func TestBoundedHistory(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := New("conv-2", "front_desk", nil, now)
	for i := 0; i < 10; i++ {
		s.AppendTurn(contractx.Turn{Content: fmt.Sprintf("t%d", i), Timestamp: now})
	}

	recent := s.BoundedHistory(3)
	if len(recent) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(recent))
	}
	if recent[0].Content != "t7" {
		t.Fatalf("unexpected window start: %q", recent[0].Content)
	}
	if got := s.BoundedHistory(0); len(got) != 10 {
		t.Fatalf("n<=0 must return full history, got %d", len(got))
	}
}

func TestApplyClassificationKeepsPreviousOnEmpty(t *testing.T) {
	t.Parallel()

	s := New("conv-3", "front_desk", nil, time.Now())
	s.ApplyClassification(contractx.Classification{Intent: "booking", Sentiment: "neutral"})
	s.ApplyClassification(contractx.Classification{Sentiment: "frustrated"})

	if s.Intent != "booking" {
		t.Fatalf("intent must survive empty update, got %q", s.Intent)
	}
	if s.Sentiment != "frustrated" {
		t.Fatalf("expected sentiment updated, got %q", s.Sentiment)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	s := New("conv-4", "front_desk", map[string]string{"channel": "cli"}, time.Now())
	s.SetSlot("date", "2026-03-02")
	s.AppendTurn(contractx.Turn{Content: "hello"})

	clone := s.Clone()
	clone.SetSlot("date", "changed")
	clone.History[0].Content = "changed"
	clone.Metadata["channel"] = "voice"

	if v, _ := s.Slot("date"); v != "2026-03-02" {
		t.Fatalf("original slot mutated: %v", v)
	}
	if s.History[0].Content != "hello" {
		t.Fatalf("original history mutated: %q", s.History[0].Content)
	}
	if s.Metadata["channel"] != "cli" {
		t.Fatalf("original metadata mutated: %q", s.Metadata["channel"])
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	s := New("", "front_desk", nil, time.Now())
	if !errors.Is(s.Validate(), contractx.ErrInvalidConversation) {
		t.Fatalf("expected ErrInvalidConversation, got %v", s.Validate())
	}

	s = New("conv-5", "  ", nil, time.Now())
	if !errors.Is(s.Validate(), contractx.ErrPersonaNotFound) {
		t.Fatalf("expected ErrPersonaNotFound, got %v", s.Validate())
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Load(ctx, "missing"); !errors.Is(err, contractx.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	s := New("conv-6", "front_desk", nil, time.Now())
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	s.CurrentPersona = "scheduler"

	loaded, err := store.Load(ctx, "conv-6")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.CurrentPersona != "front_desk" {
		t.Fatalf("store leaked caller mutation: %q", loaded.CurrentPersona)
	}
}

func TestMemoryStoreActiveIndex(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Activate(ctx, "a"); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if err := store.Activate(ctx, "b"); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if err := store.Deactivate(ctx, "a"); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	active, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(active) != 1 || active[0] != "b" {
		t.Fatalf("unexpected active set: %v", active)
	}
}
