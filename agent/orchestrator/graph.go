package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	nodex "github.com/voxgate/voxgate/agent/nodes"
)

func (o *Orchestrator) compileTurnGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_or_create_session",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadOrCreateSession(ctx, in, o.store, o.cfg.DefaultPersona, o.cfg.ResumeEnded, o.events)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_or_create_session: %w", err)
	}

	if err := graph.AddLambdaNode("classify_turn",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ClassifyTurn(ctx, in, o.classifier)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify_turn: %w", err)
	}

	if err := graph.AddLambdaNode("invoke_persona",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.InvokePersona(ctx, in, o.catalog, o.model, o.registry, o.cfg.Business, o.cfg.HistoryWindow)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node invoke_persona: %w", err)
	}

	if err := graph.AddLambdaNode("resolve_tools",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ResolveTools(ctx, in, o.executor, o.cfg.ConcurrentTools)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node resolve_tools: %w", err)
	}

	if err := graph.AddLambdaNode("evaluate_transfer",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.EvaluateTransfer(ctx, in, o.catalog, o.events, o.cfg.Business)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node evaluate_transfer: %w", err)
	}

	if err := graph.AddLambdaNode("persist_turn",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PersistTurn(ctx, in, o.store, o.events)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node persist_turn: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_or_create_session"},
		{"load_or_create_session", "classify_turn"},
		{"classify_turn", "invoke_persona"},
		{"invoke_persona", "resolve_tools"},
		{"resolve_tools", "evaluate_transfer"},
		{"evaluate_transfer", "persist_turn"},
		{"persist_turn", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.process_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile turn graph: %w", err)
	}
	return runner, nil
}
