package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Status of a single step within an execution.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

var (
	ErrNoSteps       = errors.New("workflow has no steps")
	ErrDuplicateStep = errors.New("duplicate step name")
	ErrUnknownStep   = errors.New("unknown step name")
)

// Handler runs one step. Input is the merged data of the completed steps so
// far; the returned map is folded into it for the next step.
type Handler func(ctx context.Context, data map[string]any) (map[string]any, error)

// Condition decides whether a step runs. A false result skips the step
// without failing the workflow.
type Condition func(data map[string]any) bool

// Step is one named unit of a workflow.
type Step struct {
	Name       string
	Handler    Handler
	Condition  Condition
	RetryCount int
	RetryDelay time.Duration
	Timeout    time.Duration
	OnFailure  string
}

// StepResult is the recorded outcome of one step attempt.
type StepResult struct {
	Status   Status
	Data     map[string]any
	Error    string
	Duration time.Duration
}

// Execution is the outcome of one workflow run.
type Execution struct {
	Workflow  string
	Steps     map[string]StepResult
	Data      map[string]any
	Completed bool
	StartedAt time.Time
	EndedAt   time.Time
}

// Workflow is an ordered sequence of steps with retry and failure-jump
// semantics. Steps run sequentially; there is no parallel branch support.
type Workflow struct {
	name  string
	steps []Step
	index map[string]int
}

func New(name string, steps []Step) (*Workflow, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}
	index := make(map[string]int, len(steps))
	for i, step := range steps {
		name := strings.TrimSpace(step.Name)
		if name == "" {
			return nil, fmt.Errorf("step %d has no name", i)
		}
		if step.Handler == nil {
			return nil, fmt.Errorf("step %q has no handler", name)
		}
		if _, ok := index[name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStep, name)
		}
		index[name] = i
	}
	for _, step := range steps {
		if step.OnFailure != "" {
			if _, ok := index[step.OnFailure]; !ok {
				return nil, fmt.Errorf("%w: on_failure target %s", ErrUnknownStep, step.OnFailure)
			}
		}
	}
	return &Workflow{name: name, steps: steps, index: index}, nil
}

// Run executes the workflow with the given initial data. A failed step with
// an OnFailure target jumps there; without one it aborts the run. The
// returned execution always carries a result for every step, including the
// ones never reached.
func (w *Workflow) Run(ctx context.Context, initial map[string]any) (*Execution, error) {
	exec := &Execution{
		Workflow:  w.name,
		Steps:     make(map[string]StepResult, len(w.steps)),
		Data:      make(map[string]any, len(initial)),
		StartedAt: time.Now(),
	}
	for k, v := range initial {
		exec.Data[k] = v
	}
	for _, step := range w.steps {
		exec.Steps[step.Name] = StepResult{Status: StatusPending}
	}

	i := 0
	for i < len(w.steps) {
		step := w.steps[i]
		if err := ctx.Err(); err != nil {
			exec.EndedAt = time.Now()
			return exec, err
		}

		if step.Condition != nil && !step.Condition(exec.Data) {
			exec.Steps[step.Name] = StepResult{Status: StatusSkipped}
			i++
			continue
		}

		result := w.runStep(ctx, step, exec.Data)
		exec.Steps[step.Name] = result

		if result.Status == StatusFailed {
			if step.OnFailure != "" {
				i = w.index[step.OnFailure]
				continue
			}
			exec.EndedAt = time.Now()
			return exec, fmt.Errorf("workflow %s: step %s failed: %s", w.name, step.Name, result.Error)
		}

		for k, v := range result.Data {
			exec.Data[k] = v
		}
		i++
	}

	exec.Completed = true
	exec.EndedAt = time.Now()
	return exec, nil
}

func (w *Workflow) runStep(ctx context.Context, step Step, data map[string]any) StepResult {
	attempts := step.RetryCount + 1
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 && step.RetryDelay > 0 {
			select {
			case <-time.After(step.RetryDelay):
			case <-ctx.Done():
				// A cancelled context forfeits the remaining attempts.
				return StepResult{
					Status:   StatusFailed,
					Error:    ctx.Err().Error(),
					Duration: time.Since(start),
				}
			}
		}

		out, err := w.invoke(ctx, step, data)
		if err == nil {
			return StepResult{
				Status:   StatusCompleted,
				Data:     out,
				Duration: time.Since(start),
			}
		}
		lastErr = err
		log.Warn().
			Str("workflow", w.name).
			Str("step", step.Name).
			Int("attempt", attempt+1).
			Err(err).
			Msg("workflow step attempt failed")
	}

	return StepResult{
		Status:   StatusFailed,
		Error:    lastErr.Error(),
		Duration: time.Since(start),
	}
}

func (w *Workflow) invoke(ctx context.Context, step Step, data map[string]any) (map[string]any, error) {
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	type outcome struct {
		data map[string]any
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		out, err := step.Handler(ctx, data)
		done <- outcome{data: out, err: err}
	}()

	select {
	case out := <-done:
		return out.data, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
