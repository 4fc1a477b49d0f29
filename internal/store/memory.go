package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hurdad/flow-board/pkg/state"
)

// MemoryStore is an in-memory Store for local runs and tests.
// It implements the Store interface.
type MemoryStore struct {
	mu       sync.RWMutex
	runs     map[string]FlowRun
	tasks    map[string]TaskRun
	watchers map[int]chan WatchEvent
	nextID   int
}

// NewMemory creates a new in-memory run store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		runs:     map[string]FlowRun{},
		tasks:    map[string]TaskRun{},
		watchers: map[int]chan WatchEvent{},
	}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) CreateFlowRun(ctx context.Context, run *FlowRun) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run id is required")
	}

	m.mu.Lock()
	if _, ok := m.runs[run.ID]; ok {
		m.mu.Unlock()
		return fmt.Errorf("run %q already exists", run.ID)
	}
	m.runs[run.ID] = *run
	m.mu.Unlock()

	m.notify(WatchEvent{Type: WatchAdded, Run: cloneRun(*run)})
	return nil
}

func (m *MemoryStore) GetFlowRun(ctx context.Context, id string) (*FlowRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	return cloneRun(run), nil
}

func (m *MemoryStore) ListFlowRuns(ctx context.Context) ([]*FlowRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*FlowRun, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, cloneRun(run))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Created.Before(out[j].Created)
	})

	return out, nil
}

func (m *MemoryStore) UpdateFlowRunState(ctx context.Context, id string, from, to state.Type) error {
	m.mu.Lock()

	run, ok := m.runs[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	if run.State != from {
		m.mu.Unlock()
		return fmt.Errorf("run %q is %s, not %s: %w", id, run.State, from, ErrConflict)
	}

	run.State = to
	run.Updated = time.Now().UTC()
	m.runs[id] = run
	m.mu.Unlock()

	m.notify(WatchEvent{Type: WatchUpdated, Run: cloneRun(run)})
	return nil
}

func (m *MemoryStore) PutTaskRun(ctx context.Context, run *TaskRun) error {
	if run == nil || run.RunID == "" || run.TaskID == "" {
		return fmt.Errorf("task run requires run id and task id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.tasks[TaskRunID(run.RunID, run.TaskID, run.RunNumber)] = *run
	return nil
}

func (m *MemoryStore) ListTaskRuns(ctx context.Context, runID string) ([]*TaskRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*TaskRun{}
	for _, run := range m.tasks {
		if run.RunID != runID {
			continue
		}
		clone := run
		out = append(out, &clone)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TaskID != out[j].TaskID {
			return out[i].TaskID < out[j].TaskID
		}
		return out[i].RunNumber < out[j].RunNumber
	})

	return out, nil
}

type memoryWatch struct {
	events chan WatchEvent
	stop   func()
}

func (w *memoryWatch) Events() <-chan WatchEvent { return w.events }
func (w *memoryWatch) Stop()                     { w.stop() }

func (m *MemoryStore) WatchRuns(ctx context.Context) Watch {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	events := make(chan WatchEvent, 16)
	m.watchers[id] = events
	m.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.watchers, id)
			m.mu.Unlock()
			close(events)
		})
	}

	go func() {
		<-ctx.Done()
		stop()
	}()

	return &memoryWatch{events: events, stop: stop}
}

func (m *MemoryStore) notify(ev WatchEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, ch := range m.watchers {
		select {
		case ch <- ev:
		default:
			// Slow watchers drop events rather than blocking writers.
		}
	}
}

func cloneRun(run FlowRun) *FlowRun {
	clone := run
	return &clone
}
