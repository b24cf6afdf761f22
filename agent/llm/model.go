package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/voxgate/voxgate/agent/contract"
)

// EinoChatModel adapts an eino tool-calling chat model to the engine's
// ChatModel contract.
type EinoChatModel struct {
	base    model.ToolCallingChatModel
	timeout time.Duration
}

var _ contractx.ChatModel = (*EinoChatModel)(nil)

func NewEinoChatModel(base model.ToolCallingChatModel, timeout time.Duration) *EinoChatModel {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &EinoChatModel{base: base, timeout: timeout}
}

func (m *EinoChatModel) Generate(ctx context.Context, instructions string, history []contractx.Turn, tools []*schema.ToolInfo) (contractx.ModelOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	target := m.base
	if len(tools) > 0 {
		bound, err := m.base.WithTools(tools)
		if err != nil {
			return contractx.ModelOutput{}, fmt.Errorf("%w: bind tools: %v", contractx.ErrModelInvoke, err)
		}
		target = bound
	}

	msgs := buildMessages(instructions, history)
	resp, err := target.Generate(ctx, msgs)
	if err != nil {
		return contractx.ModelOutput{}, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	out := contractx.ModelOutput{Text: resp.Content}
	for _, call := range resp.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, contractx.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return out, nil
}

func buildMessages(instructions string, history []contractx.Turn) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(history)+1)
	if instructions != "" {
		msgs = append(msgs, schema.SystemMessage(instructions))
	}
	for _, turn := range history {
		switch turn.Role {
		case contractx.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(turn.Content, nil))
		default:
			msgs = append(msgs, schema.UserMessage(turn.Content))
		}
	}
	return msgs
}
