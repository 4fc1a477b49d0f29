package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hurdad/flow-board/internal/observability"
	"github.com/hurdad/flow-board/internal/store"
	"github.com/hurdad/flow-board/pkg/state"
)

// FlowRunner drives an ordered list of tasks through a single flow run.
type FlowRunner struct {
	// Deployment labels the run record, e.g. "healthcheck/manual".
	Deployment string

	// Tasks run in order. Upstream maps a task id to the ids of the tasks
	// whose states feed its trigger.
	Tasks    []Task
	Upstream map[string][]string

	Store  store.Store
	Logger observability.Logger
}

// Run creates a flow run, executes every task (including scheduled
// retries), and settles the run in COMPLETED or FAILED. It returns the run
// id and the final state of each task.
func (f *FlowRunner) Run(ctx context.Context) (string, map[string]state.Type, error) {
	runID := uuid.NewString()

	flowRun := &store.FlowRun{
		ID:         runID,
		Deployment: f.Deployment,
		State:      state.Pending,
		Created:    time.Now().UTC(),
	}
	if err := f.Store.CreateFlowRun(ctx, flowRun); err != nil {
		return "", nil, fmt.Errorf("create flow run: %w", err)
	}
	if err := f.Store.UpdateFlowRunState(ctx, runID, state.Pending, state.Running); err != nil {
		return "", nil, fmt.Errorf("start flow run: %w", err)
	}

	f.Logger.Info(ctx, "flow run started",
		slog.String("run_id", runID),
		slog.String("deployment", f.Deployment),
	)

	states := make(map[string]state.Type, len(f.Tasks))
	failed := false

	for _, task := range f.Tasks {
		preceding := map[string]state.Type{}
		for _, upstream := range f.Upstream[task.ID] {
			if st, ok := states[upstream]; ok {
				preceding[upstream] = st
			}
		}

		final, err := f.runTask(ctx, runID, task, preceding)
		if err != nil {
			failed = true
			states[task.ID] = state.Failed
			continue
		}

		states[task.ID] = final
		if final == state.Failed {
			failed = true
		}
	}

	runState := state.Completed
	if failed {
		runState = state.Failed
	}

	if err := f.Store.UpdateFlowRunState(ctx, runID, state.Running, runState); err != nil {
		return runID, states, fmt.Errorf("settle flow run: %w", err)
	}

	f.Logger.Info(ctx, "flow run finished",
		slog.String("run_id", runID),
		slog.String("state", string(runState)),
	)

	return runID, states, nil
}

// runTask drives one task through its attempts until a terminal state.
func (f *FlowRunner) runTask(ctx context.Context, runID string, task Task, preceding map[string]state.Type) (state.Type, error) {
	attempt := New(runID, task, nil, f.Store, f.Logger)

	for {
		if attempt.ScheduledStart != nil {
			if err := sleepUntil(ctx, *attempt.ScheduledStart); err != nil {
				return state.Failed, err
			}
		}

		final, next, err := attempt.Run(ctx, preceding)
		if err != nil {
			return final, err
		}
		if next == nil {
			return final, nil
		}
		attempt = next
	}
}

func sleepUntil(ctx context.Context, at time.Time) error {
	delay := time.Until(at)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
