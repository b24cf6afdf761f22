package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	catalogx "github.com/voxgate/voxgate/agent/catalog"
	contractx "github.com/voxgate/voxgate/agent/contract"
	nodex "github.com/voxgate/voxgate/agent/nodes"
	sessionx "github.com/voxgate/voxgate/agent/session"
	toolx "github.com/voxgate/voxgate/agent/tool"
)

const defaultFarewell = "Thank you for calling. Have a great day!"

type Config struct {
	DefaultPersona  string `envconfig:"DEFAULT_PERSONA" split_words:"true" default:"front_desk"`
	HistoryWindow   int    `envconfig:"HISTORY_WINDOW" split_words:"true" default:"20"`
	ResumeEnded     bool   `envconfig:"RESUME_ENDED" split_words:"true" default:"false"`
	ConcurrentTools bool   `envconfig:"CONCURRENT_TOOLS" split_words:"true" default:"false"`

	Business contractx.BusinessInfo `ignored:"true"`
}

// Orchestrator routes conversation turns through the persona pipeline and
// owns the conversation lifecycle.
type Orchestrator struct {
	store      sessionx.Store
	catalog    *catalogx.Catalog
	registry   *toolx.Registry
	executor   *toolx.Executor
	model      contractx.ChatModel
	classifier contractx.Classifier
	events     contractx.EventLog
	cfg        Config

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]
	locks       *conversationLocks

	now func() time.Time
}

func New(
	store sessionx.Store,
	catalog *catalogx.Catalog,
	registry *toolx.Registry,
	model contractx.ChatModel,
	classifier contractx.Classifier,
	events contractx.EventLog,
	cfg Config,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if catalog == nil {
		return nil, errors.New("persona catalog is required")
	}
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if model == nil {
		return nil, errors.New("chat model is required")
	}

	if strings.TrimSpace(cfg.DefaultPersona) == "" {
		cfg.DefaultPersona = "front_desk"
	}
	if _, err := catalog.Get(cfg.DefaultPersona); err != nil {
		return nil, fmt.Errorf("default persona %q: %w", cfg.DefaultPersona, err)
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 20
	}

	o := &Orchestrator{
		store:      store,
		catalog:    catalog,
		registry:   registry,
		executor:   toolx.NewExecutor(registry, events),
		model:      model,
		classifier: classifier,
		events:     events,
		cfg:        cfg,
		locks:      newConversationLocks(),
		now:        time.Now,
	}

	graphRunner, err := o.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// Initialize opens a conversation with the given persona and returns its
// greeting. An unknown persona falls back to the default. Re-initializing a
// live conversation returns the current persona's greeting without resetting
// history.
func (o *Orchestrator) Initialize(ctx context.Context, conversationID, personaID string, metadata map[string]string) (string, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return "", contractx.ErrInvalidConversation
	}

	o.locks.lock(conversationID)
	defer o.locks.unlock(conversationID)

	if existing, err := o.store.Load(ctx, conversationID); err == nil && !existing.Ended {
		persona, perr := o.catalog.Get(existing.CurrentPersona)
		if perr != nil {
			return "", perr
		}
		return persona.GreetingFor(o.cfg.Business), nil
	}

	persona, err := o.catalog.Get(personaID)
	if err != nil {
		log.Warn().
			Str("conversation_id", conversationID).
			Str("persona_id", personaID).
			Msg("unknown persona requested, using default")
		persona, err = o.catalog.Get(o.cfg.DefaultPersona)
		if err != nil {
			return "", err
		}
	}

	now := o.now().UTC()
	s := sessionx.New(conversationID, persona.ID, metadata, now)
	greeting := persona.GreetingFor(o.cfg.Business)
	s.AppendTurn(contractx.Turn{
		Role:      contractx.RoleAssistant,
		Content:   greeting,
		Persona:   persona.ID,
		Timestamp: now,
	})

	if err := o.store.Save(ctx, s); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	if err := o.store.Activate(ctx, conversationID); err != nil {
		return "", fmt.Errorf("activate session: %w", err)
	}
	if o.events != nil {
		o.events.Append(ctx, conversationID, contractx.EventConversationStarted, map[string]any{
			"persona_id": persona.ID,
			"metadata":   metadata,
		}, 0)
	}

	log.Info().
		Str("conversation_id", conversationID).
		Str("persona_id", persona.ID).
		Msg("conversation initialized")

	return greeting, nil
}

// ProcessTurn handles one user utterance. Pipeline failures come back as a
// user-safe fallback result, not as an error; only an unusable conversation
// id errors out.
func (o *Orchestrator) ProcessTurn(ctx context.Context, conversationID, text string) (contractx.TurnResult, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return contractx.TurnResult{}, contractx.ErrInvalidConversation
	}

	o.locks.lock(conversationID)
	defer o.locks.unlock(conversationID)

	start := o.now()
	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		ConversationID: conversationID,
		Text:           text,
	})
	if err != nil {
		log.Error().
			Str("conversation_id", conversationID).
			Err(err).
			Msg("turn failed, returning fallback reply")
		if o.events != nil {
			o.events.Append(ctx, conversationID, contractx.EventError, map[string]any{
				"error": err.Error(),
			}, o.now().Sub(start))
		}
		return contractx.TurnResult{
			Reply:     nodex.FallbackReply,
			PersonaID: o.currentPersona(ctx, conversationID),
		}, nil
	}

	return out.Result, nil
}

// End closes the conversation and returns a farewell. Ending an unknown or
// already ended conversation returns the default farewell; End is idempotent.
func (o *Orchestrator) End(ctx context.Context, conversationID string) (string, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return "", contractx.ErrInvalidConversation
	}

	o.locks.lock(conversationID)
	defer o.locks.unlock(conversationID)

	s, err := o.store.Load(ctx, conversationID)
	if err != nil || s.Ended {
		return defaultFarewell, nil
	}

	farewell := defaultFarewell
	if persona, perr := o.catalog.Get(s.CurrentPersona); perr == nil {
		if f := persona.FarewellFor(); f != "" {
			farewell = f
		}
	}

	now := o.now().UTC()
	s.Ended = true
	s.AppendTurn(contractx.Turn{
		Role:      contractx.RoleAssistant,
		Content:   farewell,
		Persona:   s.CurrentPersona,
		Timestamp: now,
	})
	s.Touch(now)

	if err := o.store.Save(ctx, s); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	if err := o.store.Deactivate(ctx, conversationID); err != nil {
		return "", fmt.Errorf("deactivate session: %w", err)
	}
	if o.events != nil {
		o.events.Append(ctx, conversationID, contractx.EventConversationEnded, map[string]any{
			"persona_id": s.CurrentPersona,
			"turns":      len(s.History),
		}, 0)
	}

	log.Info().
		Str("conversation_id", conversationID).
		Str("persona_id", s.CurrentPersona).
		Msg("conversation ended")

	return farewell, nil
}

// Transfer forces the conversation onto another persona and returns its
// greeting. Used by operator tooling; normal transfers happen inside the
// turn pipeline.
func (o *Orchestrator) Transfer(ctx context.Context, conversationID, targetID, reason string) (string, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return "", contractx.ErrInvalidConversation
	}

	o.locks.lock(conversationID)
	defer o.locks.unlock(conversationID)

	s, err := o.store.Load(ctx, conversationID)
	if err != nil {
		return "", err
	}
	target, err := o.catalog.Get(targetID)
	if err != nil {
		return "", fmt.Errorf("%w: %s", contractx.ErrTransferTarget, targetID)
	}

	from := s.CurrentPersona
	now := o.now().UTC()
	s.CurrentPersona = target.ID
	greeting := target.GreetingFor(o.cfg.Business)
	if greeting != "" {
		s.AppendTurn(contractx.Turn{
			Role:      contractx.RoleAssistant,
			Content:   greeting,
			Persona:   target.ID,
			Timestamp: now,
		})
	}
	s.Touch(now)

	if err := o.store.Save(ctx, s); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	if o.events != nil {
		o.events.Append(ctx, conversationID, contractx.EventAgentTransferred, map[string]any{
			"from":   from,
			"to":     target.ID,
			"reason": reason,
			"forced": true,
		}, 0)
	}
	return greeting, nil
}

// ActiveConversations lists conversation ids currently in the active index.
func (o *Orchestrator) ActiveConversations(ctx context.Context) ([]string, error) {
	return o.store.ListActive(ctx)
}

func (o *Orchestrator) currentPersona(ctx context.Context, conversationID string) string {
	if s, err := o.store.Load(ctx, conversationID); err == nil {
		return s.CurrentPersona
	}
	return o.cfg.DefaultPersona
}
