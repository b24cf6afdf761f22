package turnnode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	contractx "github.com/voxgate/voxgate/agent/contract"
	toolx "github.com/voxgate/voxgate/agent/tool"
)

// ResolveTools executes the model's tool call requests and settles the turn's
// reply text. When any tool result carries a message, the first such message
// replaces the model's text verbatim.
func ResolveTools(
	ctx context.Context,
	in *GraphState,
	executor *toolx.Executor,
	concurrent bool,
) (*GraphState, error) {
	if in == nil {
		return nil, errors.New("graph state is nil")
	}

	// A freshly created session already carries its greeting as the reply.
	if in.Created {
		return in, nil
	}

	in.Reply = strings.TrimSpace(in.ModelOut.Text)

	if len(in.ModelOut.ToolCalls) > 0 {
		results := make([]contractx.ToolResult, len(in.ModelOut.ToolCalls))

		// Calls with unparseable arguments fail in place without touching
		// the executor; the rest run as a batch.
		var invs []toolx.Invocation
		var invIdx []int
		for i, call := range in.ModelOut.ToolCalls {
			args := map[string]any{}
			if strings.TrimSpace(call.Arguments) != "" {
				if err := sonic.UnmarshalString(call.Arguments, &args); err != nil {
					results[i] = contractx.ToolResult{
						Tool:    call.Name,
						Success: false,
						Error:   fmt.Sprintf("malformed arguments: %v", err),
					}
					continue
				}
			}
			invs = append(invs, toolx.Invocation{
				ConversationID: in.ConversationID,
				PersonaID:      in.Persona.ID,
				Name:           call.Name,
				Args:           args,
			})
			invIdx = append(invIdx, i)
		}

		var batch []contractx.ToolResult
		if concurrent && len(invs) > 1 {
			batch = executor.ExecuteConcurrent(ctx, invs)
		} else {
			batch = executor.ExecuteAll(ctx, invs)
		}
		for j, res := range batch {
			results[invIdx[j]] = res
		}
		in.ToolResults = results

		for _, res := range results {
			if res.Message != "" {
				in.Reply = res.Message
				break
			}
		}
	}

	if in.Reply == "" {
		in.Reply = FallbackReply
	}
	return in, nil
}
