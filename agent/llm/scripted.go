package llm

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/voxgate/voxgate/agent/contract"
)

// ScriptedModel is an offline stand-in for a real chat model. It answers
// from a small keyword table so the engine can run end to end without an
// API key.
type ScriptedModel struct {
	Fallback string
}

var _ contractx.ChatModel = (*ScriptedModel)(nil)

func NewScriptedModel() *ScriptedModel {
	return &ScriptedModel{
		Fallback: "I can help with appointments, support questions, and our products. What can I do for you?",
	}
}

func (m *ScriptedModel) Generate(ctx context.Context, instructions string, history []contractx.Turn, tools []*schema.ToolInfo) (contractx.ModelOutput, error) {
	var last string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == contractx.RoleUser {
			last = strings.ToLower(history[i].Content)
			break
		}
	}

	switch {
	case strings.Contains(last, "hours"):
		return contractx.ModelOutput{Text: "We're open weekdays 9 AM to 6 PM and Saturdays 10 AM to 4 PM."}, nil
	case strings.Contains(last, "thank"):
		return contractx.ModelOutput{Text: "You're very welcome! Is there anything else I can help with?"}, nil
	case last == "":
		return contractx.ModelOutput{Text: m.Fallback}, nil
	}
	return contractx.ModelOutput{Text: m.Fallback}, nil
}
