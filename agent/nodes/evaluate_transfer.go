package turnnode

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	catalogx "github.com/voxgate/voxgate/agent/catalog"
	contractx "github.com/voxgate/voxgate/agent/contract"
)

// EvaluateTransfer checks whether the active persona hands the conversation
// to another one. A programmatic hook outranks the static intent table. A
// rule pointing at an unknown persona is recorded as a warning and the turn
// keeps the origin persona's reply.
func EvaluateTransfer(
	ctx context.Context,
	in *GraphState,
	catalog *catalogx.Catalog,
	events contractx.EventLog,
	info contractx.BusinessInfo,
) (*GraphState, error) {
	if in == nil {
		return nil, errors.New("graph state is nil")
	}
	if in.Created {
		return in, nil
	}

	targetID := in.Persona.TransferTarget(in.Session)
	if targetID == "" || targetID == in.Persona.ID {
		return in, nil
	}

	target, err := catalog.Get(targetID)
	if err != nil {
		log.Warn().
			Str("conversation_id", in.ConversationID).
			Str("from", in.Persona.ID).
			Str("target", targetID).
			Msg("transfer target not in catalog, staying put")
		if events != nil {
			events.Append(ctx, in.ConversationID, contractx.EventWarning, map[string]any{
				"reason": "unknown transfer target",
				"from":   in.Persona.ID,
				"target": targetID,
			}, 0)
		}
		return in, nil
	}

	in.Session.CurrentPersona = target.ID
	in.Transferred = true
	if greeting := target.GreetingFor(info); greeting != "" {
		in.Reply = greeting
	}

	if events != nil {
		events.Append(ctx, in.ConversationID, contractx.EventAgentTransferred, map[string]any{
			"from":      in.FromPersona,
			"to":        target.ID,
			"intent":    in.Session.Intent,
			"sentiment": in.Session.Sentiment,
		}, 0)
	}

	log.Info().
		Str("conversation_id", in.ConversationID).
		Str("from", in.FromPersona).
		Str("to", target.ID).
		Str("intent", in.Session.Intent).
		Msg("conversation transferred")

	return in, nil
}
