package turnnode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/voxgate/voxgate/agent/contract"
	sessionx "github.com/voxgate/voxgate/agent/session"
)

// LoadOrCreateSession resolves the conversation's session. An ended session
// starts over as a fresh one unless resuming is enabled; the old record stays
// in the store until TTL expiry.
func LoadOrCreateSession(
	ctx context.Context,
	in *GraphState,
	store sessionx.Store,
	defaultPersona string,
	resumeEnded bool,
	events contractx.EventLog,
) (*GraphState, error) {
	if in == nil {
		return nil, errors.New("graph state is nil")
	}

	s, err := store.Load(ctx, in.ConversationID)
	switch {
	case err == nil && s.Ended && !resumeEnded:
		s = nil
	case err == nil:
	case errors.Is(err, contractx.ErrSessionNotFound):
		s = nil
	default:
		return nil, fmt.Errorf("load session: %w", err)
	}

	if s == nil {
		s = sessionx.New(in.ConversationID, defaultPersona, nil, in.Now)
		in.Created = true
		if err := store.Activate(ctx, in.ConversationID); err != nil {
			return nil, fmt.Errorf("activate session: %w", err)
		}
		if events != nil {
			events.Append(ctx, in.ConversationID, contractx.EventConversationStarted, map[string]any{
				"persona_id": defaultPersona,
			}, 0)
		}
	}

	in.Session = s
	return in, nil
}
