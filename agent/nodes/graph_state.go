package turnnode

import (
	"strings"
	"time"

	catalogx "github.com/voxgate/voxgate/agent/catalog"
	contractx "github.com/voxgate/voxgate/agent/contract"
	sessionx "github.com/voxgate/voxgate/agent/session"
)

// FallbackReply is the user-safe answer for any turn the pipeline could not
// complete normally.
const FallbackReply = "I apologize, I'm having trouble processing that. Could you please repeat?"

type GraphInput struct {
	ConversationID string
	Text           string
}

type GraphOutput struct {
	Result contractx.TurnResult
}

// GraphState threads one turn through the pipeline nodes.
type GraphState struct {
	ConversationID string
	Text           string
	Now            time.Time

	Session *sessionx.Session
	Persona *catalogx.Persona
	Created bool

	ModelOut    contractx.ModelOutput
	ToolResults []contractx.ToolResult
	Reply       string
	Transferred bool
	FromPersona string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	conversationID := strings.TrimSpace(in.ConversationID)
	if conversationID == "" {
		return nil, contractx.ErrInvalidConversation
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, contractx.ErrInvalidMessage
	}

	return &GraphState{
		ConversationID: conversationID,
		Text:           text,
		Now:            nowFn().UTC(),
	}, nil
}
