package workflow

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunMergesStepData(t *testing.T) {
	t.Parallel()

	w, err := New("intake", []Step{
		{
			Name: "collect",
			Handler: func(ctx context.Context, data map[string]any) (map[string]any, error) {
				return map[string]any{"name": "Jordan"}, nil
			},
		},
		{
			Name: "confirm",
			Handler: func(ctx context.Context, data map[string]any) (map[string]any, error) {
				return map[string]any{"confirmed": data["name"] == "Jordan"}, nil
			},
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	exec, err := w.Run(context.Background(), map[string]any{"channel": "cli"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !exec.Completed {
		t.Fatal("expected completed execution")
	}
	if exec.Data["confirmed"] != true {
		t.Fatalf("step data not merged: %v", exec.Data)
	}
	if exec.Steps["collect"].Status != StatusCompleted {
		t.Fatalf("unexpected status: %s", exec.Steps["collect"].Status)
	}
}

func TestRunSkipsOnFalseCondition(t *testing.T) {
	t.Parallel()

	ran := false
	w, err := New("optional", []Step{
		{
			Name:      "maybe",
			Condition: func(data map[string]any) bool { return false },
			Handler: func(ctx context.Context, data map[string]any) (map[string]any, error) {
				ran = true
				return nil, nil
			},
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	exec, err := w.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ran {
		t.Fatal("skipped step must not run")
	}
	if exec.Steps["maybe"].Status != StatusSkipped {
		t.Fatalf("unexpected status: %s", exec.Steps["maybe"].Status)
	}
	if !exec.Completed {
		t.Fatal("skipping must not abort the run")
	}
}

func TestRunRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	attempts := 0
	w, err := New("flaky", []Step{
		{
			Name:       "unstable",
			RetryCount: 2,
			Handler: func(ctx context.Context, data map[string]any) (map[string]any, error) {
				attempts++
				if attempts < 3 {
					return nil, errors.New("transient")
				}
				return map[string]any{"ok": true}, nil
			},
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	exec, err := w.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if exec.Steps["unstable"].Status != StatusCompleted {
		t.Fatalf("unexpected status: %s", exec.Steps["unstable"].Status)
	}
}

func TestRunStopsRetryingOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	w, err := New("doomed", []Step{
		{
			Name:       "unreachable",
			RetryCount: 5,
			RetryDelay: 10 * time.Millisecond,
			Handler: func(ctx context.Context, data map[string]any) (map[string]any, error) {
				attempts++
				cancel()
				return nil, errors.New("still down")
			},
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	exec, err := w.Run(ctx, nil)
	if err == nil {
		t.Fatal("expected run failure")
	}
	if attempts != 1 {
		t.Fatalf("cancellation must forfeit the remaining attempts, got %d", attempts)
	}
	if exec.Steps["unreachable"].Status != StatusFailed {
		t.Fatalf("unexpected status: %s", exec.Steps["unreachable"].Status)
	}
}

func TestRunJumpsOnFailure(t *testing.T) {
	t.Parallel()

	w, err := New("fallible", []Step{
		{
			Name:      "try_primary",
			OnFailure: "recover",
			Handler: func(ctx context.Context, data map[string]any) (map[string]any, error) {
				return nil, errors.New("primary down")
			},
		},
		{
			Name: "never_reached",
			Handler: func(ctx context.Context, data map[string]any) (map[string]any, error) {
				t.Fatal("step after a failed jump source must be bypassed")
				return nil, nil
			},
		},
		{
			Name: "recover",
			Handler: func(ctx context.Context, data map[string]any) (map[string]any, error) {
				return map[string]any{"recovered": true}, nil
			},
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	exec, err := w.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if exec.Steps["try_primary"].Status != StatusFailed {
		t.Fatalf("unexpected status: %s", exec.Steps["try_primary"].Status)
	}
	if exec.Steps["never_reached"].Status != StatusPending {
		t.Fatalf("bypassed step must stay pending, got %s", exec.Steps["never_reached"].Status)
	}
	if exec.Data["recovered"] != true {
		t.Fatalf("recovery step did not run: %v", exec.Data)
	}
}

func TestRunFailsWithoutJumpTarget(t *testing.T) {
	t.Parallel()

	w, err := New("strict", []Step{
		{
			Name: "must_pass",
			Handler: func(ctx context.Context, data map[string]any) (map[string]any, error) {
				return nil, errors.New("nope")
			},
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	exec, err := w.Run(context.Background(), nil)
	if err == nil {
		t.Fatal("expected run failure")
	}
	if exec.Completed {
		t.Fatal("failed run must not report completed")
	}
}

func TestStepTimeout(t *testing.T) {
	t.Parallel()

	w, err := New("slow", []Step{
		{
			Name:    "stall",
			Timeout: 30 * time.Millisecond,
			Handler: func(ctx context.Context, data map[string]any) (map[string]any, error) {
				select {
				case <-time.After(5 * time.Second):
					return nil, nil
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			},
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	exec, err := w.Run(context.Background(), nil)
	if err == nil {
		t.Fatal("expected timeout failure")
	}
	if exec.Steps["stall"].Status != StatusFailed {
		t.Fatalf("unexpected status: %s", exec.Steps["stall"].Status)
	}
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	if _, err := New("empty", nil); !errors.Is(err, ErrNoSteps) {
		t.Fatalf("expected ErrNoSteps, got %v", err)
	}

	h := func(ctx context.Context, data map[string]any) (map[string]any, error) { return nil, nil }
	if _, err := New("dup", []Step{{Name: "a", Handler: h}, {Name: "a", Handler: h}}); !errors.Is(err, ErrDuplicateStep) {
		t.Fatalf("expected ErrDuplicateStep, got %v", err)
	}
	if _, err := New("dangling", []Step{{Name: "a", Handler: h, OnFailure: "ghost"}}); !errors.Is(err, ErrUnknownStep) {
		t.Fatalf("expected ErrUnknownStep, got %v", err)
	}
}
