package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	contractx "github.com/voxgate/voxgate/agent/contract"
	sessionx "github.com/voxgate/voxgate/agent/session"
)

// Persona is an immutable configuration bundle for one conversational role:
// identity, model instructions, tool access, and transfer rules. Behavioral
// variation lives in the optional hook functions, not in subtypes.
type Persona struct {
	ID           string
	DisplayName  string
	Type         contractx.PersonaType
	Instructions string

	AllowedTools []string

	// TransferRules maps a detected intent label to a target persona id.
	TransferRules map[string]string

	Greeting string
	Farewell string

	// TransferCheck, when set, runs before the static TransferRules table and
	// its non-empty answer takes priority (e.g. sentiment escalation).
	TransferCheck func(s *sessionx.Session) string

	// GreetingFunc, when set, produces the greeting from business data instead
	// of the static Greeting string.
	GreetingFunc func(info contractx.BusinessInfo) string
}

// GreetingFor resolves the persona greeting against business info.
func (p *Persona) GreetingFor(info contractx.BusinessInfo) string {
	if p.GreetingFunc != nil {
		if g := strings.TrimSpace(p.GreetingFunc(info)); g != "" {
			return g
		}
	}
	if p.Greeting != "" {
		return p.Greeting
	}
	return "Hello! How can I help you today?"
}

// FarewellFor resolves the persona farewell.
func (p *Persona) FarewellFor() string {
	if p.Farewell != "" {
		return p.Farewell
	}
	return "Thank you for calling. Goodbye!"
}

// TransferTarget evaluates the persona's handoff decision for the session:
// the dynamic hook wins over the static intent table. An empty answer means
// "stay with this persona".
func (p *Persona) TransferTarget(s *sessionx.Session) string {
	if p.TransferCheck != nil {
		if target := strings.TrimSpace(p.TransferCheck(s)); target != "" {
			return target
		}
	}
	if s.Intent == "" || len(p.TransferRules) == 0 {
		return ""
	}
	return p.TransferRules[s.Intent]
}

// Summary is the administrative listing view of a persona.
type Summary struct {
	ID          string                `json:"id"`
	DisplayName string                `json:"display_name"`
	Type        contractx.PersonaType `json:"type"`
	Tools       []string              `json:"tools,omitempty"`
}

// Catalog holds the registered persona set. It is built once at startup;
// reads after construction need no synchronization, but Register/Replace are
// guarded so misuse cannot corrupt the map.
type Catalog struct {
	mu       sync.RWMutex
	personas map[string]*Persona
}

func NewCatalog() *Catalog {
	return &Catalog{personas: make(map[string]*Persona, 8)}
}

// Register adds a persona, rejecting duplicates. Use Replace for an explicit
// override.
func (c *Catalog) Register(p *Persona) error {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: persona id is empty", contractx.ErrPersonaNotFound)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.personas[p.ID]; exists {
		return fmt.Errorf("%w: %s", contractx.ErrDuplicatePersona, p.ID)
	}
	c.personas[p.ID] = p
	return nil
}

// Replace registers or atomically overwrites a persona by id.
func (c *Catalog) Replace(p *Persona) error {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: persona id is empty", contractx.ErrPersonaNotFound)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.personas[p.ID] = p
	return nil
}

func (c *Catalog) Get(id string) (*Persona, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.personas[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contractx.ErrPersonaNotFound, id)
	}
	return p, nil
}

// List returns persona summaries sorted by id.
func (c *Catalog) List() []Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Summary, 0, len(c.personas))
	for _, p := range c.personas {
		out = append(out, Summary{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Type:        p.Type,
			Tools:       p.AllowedTools,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ValidateTransferRules checks that every transfer rule of every persona
// resolves to a registered persona. Dangling targets are a configuration
// error surfaced at startup rather than at orchestration time.
func (c *Catalog) ValidateTransferRules() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.personas {
		for intent, target := range p.TransferRules {
			if _, ok := c.personas[target]; !ok {
				return fmt.Errorf("%w: persona %s rule %q references %s", contractx.ErrTransferTarget, p.ID, intent, target)
			}
		}
	}
	return nil
}
