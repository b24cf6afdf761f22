package turnnode

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	contractx "github.com/voxgate/voxgate/agent/contract"
)

// ClassifyTurn labels the utterance with intent and sentiment. Classifier
// failure keeps the previous labels; it never fails the turn.
func ClassifyTurn(ctx context.Context, in *GraphState, classifier contractx.Classifier) (*GraphState, error) {
	if in == nil {
		return nil, errors.New("graph state is nil")
	}
	if classifier == nil {
		return in, nil
	}

	c, err := classifier.Classify(ctx, in.Text, in.Session.BoundedHistory(10))
	if err != nil {
		log.Warn().
			Str("conversation_id", in.ConversationID).
			Err(err).
			Msg("classification failed, keeping previous labels")
		return in, nil
	}

	in.Session.ApplyClassification(c)
	return in, nil
}
