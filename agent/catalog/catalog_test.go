package catalog

import (
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/voxgate/voxgate/agent/contract"
	sessionx "github.com/voxgate/voxgate/agent/session"
)

func TestRegisterRejectsDuplicate(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	if err := c.Register(&Persona{ID: "front_desk"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	err := c.Register(&Persona{ID: "front_desk"})
	if !errors.Is(err, contractx.ErrDuplicatePersona) {
		t.Fatalf("expected ErrDuplicatePersona, got %v", err)
	}
}

func TestReplaceOverrides(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	if err := c.Register(&Persona{ID: "front_desk", DisplayName: "Old"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := c.Replace(&Persona{ID: "front_desk", DisplayName: "New"}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	p, err := c.Get("front_desk")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.DisplayName != "New" {
		t.Fatalf("expected replaced persona, got %q", p.DisplayName)
	}
}

func TestTransferTargetHookOutranksTable(t *testing.T) {
	t.Parallel()

	p := &Persona{
		ID:            "front_desk",
		TransferRules: map[string]string{"booking": "scheduler"},
		TransferCheck: func(s *sessionx.Session) string {
			if s.Sentiment == "angry" {
				return "human_handoff"
			}
			return ""
		},
	}

	s := sessionx.New("conv-1", "front_desk", nil, time.Now())
	s.Intent = "booking"
	s.Sentiment = "angry"
	if got := p.TransferTarget(s); got != "human_handoff" {
		t.Fatalf("hook must win over table, got %q", got)
	}

	s.Sentiment = "neutral"
	if got := p.TransferTarget(s); got != "scheduler" {
		t.Fatalf("expected table transfer, got %q", got)
	}

	s.Intent = "general"
	if got := p.TransferTarget(s); got != "" {
		t.Fatalf("unmatched intent must not transfer, got %q", got)
	}
}

func TestValidateTransferRulesCatchesDanglingTarget(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	if err := c.Register(&Persona{
		ID:            "front_desk",
		TransferRules: map[string]string{"booking": "nowhere"},
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	err := c.ValidateTransferRules()
	if !errors.Is(err, contractx.ErrTransferTarget) {
		t.Fatalf("expected ErrTransferTarget, got %v", err)
	}
}

func TestBuiltinCatalog(t *testing.T) {
	t.Parallel()

	c, err := NewBuiltinCatalog()
	if err != nil {
		t.Fatalf("NewBuiltinCatalog() error = %v", err)
	}

	for _, id := range []string{PersonaFrontDesk, PersonaScheduler, PersonaSupport, PersonaSales, PersonaHumanHandoff} {
		if _, err := c.Get(id); err != nil {
			t.Fatalf("builtin persona %q missing: %v", id, err)
		}
	}

	frontDesk, _ := c.Get(PersonaFrontDesk)
	s := sessionx.New("conv-2", PersonaFrontDesk, nil, time.Now())
	s.Sentiment = "frustrated"
	if got := frontDesk.TransferTarget(s); got != PersonaHumanHandoff {
		t.Fatalf("frustrated caller must escalate, got %q", got)
	}
}

func TestGreetingForUsesBusinessName(t *testing.T) {
	t.Parallel()

	c, err := NewBuiltinCatalog()
	if err != nil {
		t.Fatalf("NewBuiltinCatalog() error = %v", err)
	}
	frontDesk, _ := c.Get(PersonaFrontDesk)

	greeting := frontDesk.GreetingFor(contractx.BusinessInfo{Name: "Acme Dental"})
	if !strings.Contains(greeting, "Acme Dental") {
		t.Fatalf("greeting must carry business name: %q", greeting)
	}

	// Without business data the static greeting applies.
	fallback := frontDesk.GreetingFor(contractx.BusinessInfo{})
	if fallback != frontDesk.Greeting {
		t.Fatalf("unexpected fallback greeting: %q", fallback)
	}
}

func TestComputeInstructions(t *testing.T) {
	t.Parallel()

	p := &Persona{ID: "scheduler", Instructions: "You schedule appointments."}
	s := sessionx.New("conv-3", "scheduler", nil, time.Now())
	s.SetSlot("date", "2026-03-02")
	s.SetSlot("customer_name", "Jordan")
	s.Intent = "booking"

	got := ComputeInstructions(p, contractx.BusinessInfo{
		Name:  "Acme Dental",
		Tone:  "warm",
		Hours: "weekdays 9-5",
	}, s)

	for _, want := range []string{
		"You schedule appointments.",
		"Acme Dental",
		"warm",
		"weekdays 9-5",
		"customer_name: Jordan",
		"date: 2026-03-02",
		"Detected intent: booking",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("instructions missing %q:\n%s", want, got)
		}
	}

	// Pure function: identical inputs produce identical output.
	if again := ComputeInstructions(p, contractx.BusinessInfo{Name: "Acme Dental", Tone: "warm", Hours: "weekdays 9-5"}, s); again != got {
		t.Fatalf("instructions are not deterministic")
	}
}
