package store

import (
	"context"
	"errors"

	"github.com/hurdad/flow-board/pkg/state"
)

var (
	// ErrNotFound is returned when no run exists for the given id.
	ErrNotFound = errors.New("run not found")

	// ErrConflict is returned when a state transition loses a race with a
	// concurrent writer.
	ErrConflict = errors.New("run modified concurrently")
)

type WatchEventType string

const (
	WatchAdded   WatchEventType = "ADDED"
	WatchUpdated WatchEventType = "UPDATED"
	WatchDeleted WatchEventType = "DELETED"
)

// WatchEvent describes one flow run change. Run carries only the id for
// deleted runs.
type WatchEvent struct {
	Type WatchEventType
	Run  *FlowRun
}

// Watch is a stream of flow run changes.
type Watch interface {
	Events() <-chan WatchEvent
	Stop()
}

// Store persists flow run and task run records.
type Store interface {
	CreateFlowRun(ctx context.Context, run *FlowRun) error
	GetFlowRun(ctx context.Context, id string) (*FlowRun, error)
	ListFlowRuns(ctx context.Context) ([]*FlowRun, error)
	UpdateFlowRunState(ctx context.Context, id string, from, to state.Type) error
	PutTaskRun(ctx context.Context, run *TaskRun) error
	ListTaskRuns(ctx context.Context, runID string) ([]*TaskRun, error)
	WatchRuns(ctx context.Context) Watch
	Close() error
}
