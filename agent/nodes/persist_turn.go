package turnnode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/voxgate/voxgate/agent/contract"
	sessionx "github.com/voxgate/voxgate/agent/session"
)

// PersistTurn appends the assistant turn, saves the session, and records the
// turn on the event log.
func PersistTurn(
	ctx context.Context,
	in *GraphState,
	store sessionx.Store,
	events contractx.EventLog,
) (*GraphState, error) {
	if in == nil {
		return nil, errors.New("graph state is nil")
	}

	in.Session.AppendTurn(contractx.Turn{
		Role:      contractx.RoleAssistant,
		Content:   in.Reply,
		Persona:   in.Session.CurrentPersona,
		Timestamp: in.Now,
	})
	in.Session.Touch(in.Now)

	if err := store.Save(ctx, in.Session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	if events != nil {
		events.Append(ctx, in.ConversationID, contractx.EventTurnRecorded, map[string]any{
			"persona_id":  in.Session.CurrentPersona,
			"intent":      in.Session.Intent,
			"sentiment":   in.Session.Sentiment,
			"transferred": in.Transferred,
			"tool_calls":  len(in.ToolResults),
		}, 0)
	}
	return in, nil
}

// FinalizeReply shapes the pipeline state into the caller-facing result.
func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, errors.New("graph state is nil")
	}
	return GraphOutput{Result: contractx.TurnResult{
		Reply:       in.Reply,
		PersonaID:   in.Session.CurrentPersona,
		Transferred: in.Transferred,
		ToolResults: in.ToolResults,
	}}, nil
}
