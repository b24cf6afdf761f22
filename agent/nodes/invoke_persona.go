package turnnode

import (
	"context"
	"errors"
	"fmt"

	catalogx "github.com/voxgate/voxgate/agent/catalog"
	contractx "github.com/voxgate/voxgate/agent/contract"
	toolx "github.com/voxgate/voxgate/agent/tool"
)

// InvokePersona records the user turn, assembles the active persona's
// instructions and allowed tool schemas, and asks the model for a response.
func InvokePersona(
	ctx context.Context,
	in *GraphState,
	catalog *catalogx.Catalog,
	model contractx.ChatModel,
	registry *toolx.Registry,
	info contractx.BusinessInfo,
	historyWindow int,
) (*GraphState, error) {
	if in == nil {
		return nil, errors.New("graph state is nil")
	}

	persona, err := catalog.Get(in.Session.CurrentPersona)
	if err != nil {
		return nil, fmt.Errorf("resolve persona %q: %w", in.Session.CurrentPersona, err)
	}
	in.Persona = persona
	in.FromPersona = persona.ID

	in.Session.AppendTurn(contractx.Turn{
		Role:      contractx.RoleUser,
		Content:   in.Text,
		Persona:   persona.ID,
		Timestamp: in.Now,
	})

	// A turn that created its session answers with the persona's greeting.
	// The model is not consulted until the next message.
	if in.Created {
		in.Reply = persona.GreetingFor(info)
		return in, nil
	}

	instructions := catalogx.ComputeInstructions(persona, info, in.Session)
	tools := registry.InfosFor(persona.AllowedTools)

	out, err := model.Generate(ctx, instructions, in.Session.BoundedHistory(historyWindow), tools)
	if err != nil {
		return nil, err
	}
	in.ModelOut = out
	return in, nil
}
