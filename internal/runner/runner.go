// Package runner executes tasks within a flow run and records every state
// transition in the run store.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hurdad/flow-board/internal/observability"
	"github.com/hurdad/flow-board/internal/store"
	"github.com/hurdad/flow-board/pkg/state"
)

// Sentinel outcomes a task can signal from its Run func.
var (
	// ErrSkip marks the task as intentionally not run.
	ErrSkip = errors.New("task skipped")

	// ErrRetry asks for another attempt without counting the failure as final.
	ErrRetry = errors.New("task retry requested")
)

// Task describes a runnable unit of work within a flow run.
type Task struct {
	ID         string
	Name       string
	MaxRetries int
	RetryDelay time.Duration

	// Trigger decides whether the task may run given the states of the
	// tasks immediately preceding it. Nil means AllCompleted.
	Trigger func(preceding map[string]state.Type) error

	Run func(ctx context.Context, params map[string]string) error
}

// AllCompleted is the default trigger: every preceding task must have
// completed.
func AllCompleted(preceding map[string]state.Type) error {
	for id, st := range preceding {
		if st != state.Completed {
			return fmt.Errorf("preceding task %q is %s: %w", id, st, ErrSkip)
		}
	}
	return nil
}

// TaskRunner executes one attempt of a task. Retries are fresh runners
// with the next run number.
type TaskRunner struct {
	RunID          string
	Task           Task
	Params         map[string]string
	RunNumber      int
	ScheduledStart *time.Time

	store  store.Store
	log    observability.Logger
	st     state.Type
	record store.TaskRun
}

// New returns a runner for the first attempt of a task.
func New(runID string, task Task, params map[string]string, st store.Store, log observability.Logger) *TaskRunner {
	return newAttempt(runID, task, params, 1, nil, st, log)
}

func newAttempt(runID string, task Task, params map[string]string, runNumber int, scheduledStart *time.Time, st store.Store, log observability.Logger) *TaskRunner {
	return &TaskRunner{
		RunID:          runID,
		Task:           task,
		Params:         params,
		RunNumber:      runNumber,
		ScheduledStart: scheduledStart,
		store:          st,
		log:            log,
		st:             state.Pending,
		record: store.TaskRun{
			ID:             store.TaskRunID(runID, task.ID, runNumber),
			RunID:          runID,
			TaskID:         task.ID,
			TaskName:       task.Name,
			RunNumber:      runNumber,
			State:          state.Pending,
			ScheduledStart: scheduledStart,
			Created:        time.Now().UTC(),
		},
	}
}

// ID returns the record identity <run-id>/<task-id>#<run-number>.
func (r *TaskRunner) ID() string {
	return store.TaskRunID(r.RunID, r.Task.ID, r.RunNumber)
}

// State returns the runner's current lifecycle state.
func (r *TaskRunner) State() state.Type {
	return r.st
}

var taskOutcomes metric.Int64Counter

func init() {
	taskOutcomes, _ = observability.Meter("flow-board/runner").Int64Counter(
		"task_runs_total",
		metric.WithDescription("Task run attempts by outcome"),
	)
}

// Run executes the attempt and returns its final state. When the attempt
// fails with retry budget remaining, the returned runner is the scheduled
// next attempt (already persisted); otherwise it is nil.
//
// preceding maps the ids of immediately preceding tasks to their states.
func (r *TaskRunner) Run(ctx context.Context, preceding map[string]state.Type) (state.Type, *TaskRunner, error) {
	ctx, span := observability.Tracer("flow-board/runner").Start(ctx, "task.run")
	defer span.End()

	span.SetAttributes(
		attribute.String("task.id", r.Task.ID),
		attribute.Int("task.run_number", r.RunNumber),
	)

	if r.st.Terminal() {
		return r.st, nil, nil
	}

	outcome := r.attempt(ctx, preceding)
	r.transition(ctx, outcome)

	taskOutcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("task.id", r.Task.ID),
		attribute.String("task.outcome", string(outcome)),
	))

	if outcome != state.Failed || r.RunNumber > r.Task.MaxRetries {
		return outcome, nil, nil
	}

	// Failed with budget left: persist the next attempt as scheduled.
	scheduledStart := time.Now().UTC().Add(r.Task.RetryDelay)
	next := newAttempt(r.RunID, r.Task, r.Params, r.RunNumber+1, &scheduledStart, r.store, r.log)
	next.st = state.Scheduled
	next.record.State = state.Scheduled
	if err := next.save(ctx); err != nil {
		return outcome, nil, fmt.Errorf("schedule retry: %w", err)
	}

	r.log.Info(ctx, "task retry scheduled",
		slog.String("task", r.Task.ID),
		slog.Int("run_number", next.RunNumber),
	)

	return outcome, next, nil
}

func (r *TaskRunner) attempt(ctx context.Context, preceding map[string]state.Type) state.Type {
	if err := r.save(ctx); err != nil {
		r.log.Error(ctx, "save task run", slog.String("task", r.Task.ID), slog.String("error", err.Error()))
	}

	// The flow run must still be live for the task to start.
	if flowRun, err := r.store.GetFlowRun(ctx, r.RunID); err == nil {
		if flowRun.State != state.Running {
			r.log.Info(ctx, "flow run no longer running, skipping task",
				slog.String("task", r.Task.ID),
				slog.String("flow_state", string(flowRun.State)),
			)
			return state.Cancelled
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		r.log.Error(ctx, "load flow run", slog.String("error", err.Error()))
	}

	now := time.Now().UTC()
	r.record.Started = &now
	r.transition(ctx, state.Running)

	trigger := r.Task.Trigger
	if trigger == nil {
		trigger = AllCompleted
	}
	if err := trigger(preceding); err != nil {
		r.log.Info(ctx, "task trigger declined",
			slog.String("task", r.Task.ID),
			slog.String("reason", err.Error()),
		)
		return r.classify(err)
	}

	err := r.Task.Run(ctx, r.Params)

	finished := time.Now().UTC()
	r.record.Finished = &finished

	if err != nil {
		r.log.Info(ctx, "task did not complete",
			slog.String("task", r.Task.ID),
			slog.String("reason", err.Error()),
		)
	}

	return r.classify(err)
}

// classify maps a task outcome error onto the run vocabulary. Skips record
// as CANCELLED, the closest code the dashboard knows.
func (r *TaskRunner) classify(err error) state.Type {
	switch {
	case err == nil:
		return state.Completed
	case errors.Is(err, ErrSkip):
		return state.Cancelled
	default:
		return state.Failed
	}
}

func (r *TaskRunner) transition(ctx context.Context, to state.Type) {
	r.st = to
	r.record.State = to
	if err := r.save(ctx); err != nil {
		r.log.Error(ctx, "save task run", slog.String("task", r.Task.ID), slog.String("error", err.Error()))
	}
}

func (r *TaskRunner) save(ctx context.Context) error {
	record := r.record
	return r.store.PutTaskRun(ctx, &record)
}
