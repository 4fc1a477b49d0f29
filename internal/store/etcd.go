package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/hurdad/flow-board/pkg/state"
)

// ============================================================
// Etcd-backed Store
// ============================================================

type EtcdStore struct {
	cli *clientv3.Client
}

func NewEtcd(endpoints []string) (*EtcdStore, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	return &EtcdStore{cli: cli}, nil
}

func (s *EtcdStore) Close() error {
	return s.cli.Close()
}

// ============================================================
// Key layout
// ============================================================
//
// /flowboard/runs/<run-id>/meta
// /flowboard/runs/<run-id>/tasks/<task-id>/<run-number>
//

const rootPrefix = "/flowboard/runs"

func runPrefix(id string) string {
	return path.Join(rootPrefix, id)
}

func metaKey(id string) string {
	return path.Join(runPrefix(id), "meta")
}

func taskKey(runID, taskID string, runNumber int) string {
	return path.Join(runPrefix(runID), "tasks", taskID, strconv.Itoa(runNumber))
}

func tasksPrefix(runID string) string {
	return path.Join(runPrefix(runID), "tasks") + "/"
}

// ============================================================
// CreateFlowRun
// ============================================================

func (s *EtcdStore) CreateFlowRun(ctx context.Context, run *FlowRun) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run id is required")
	}

	data, err := json.Marshal(run)
	if err != nil {
		return err
	}

	res, err := s.cli.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(metaKey(run.ID)), "=", 0)).
		Then(clientv3.OpPut(metaKey(run.ID), string(data))).
		Commit()
	if err != nil {
		return err
	}
	if !res.Succeeded {
		return fmt.Errorf("run %q already exists", run.ID)
	}

	return nil
}

// ============================================================
// GetFlowRun
// ============================================================

func (s *EtcdStore) GetFlowRun(ctx context.Context, id string) (*FlowRun, error) {
	resp, err := s.cli.Get(ctx, metaKey(id))
	if err != nil {
		return nil, err
	}
	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("run %q: %w", id, ErrNotFound)
	}

	var run FlowRun
	if err := json.Unmarshal(resp.Kvs[0].Value, &run); err != nil {
		return nil, err
	}

	return &run, nil
}

// ============================================================
// ListFlowRuns
// ============================================================

func (s *EtcdStore) ListFlowRuns(ctx context.Context) ([]*FlowRun, error) {
	resp, err := s.cli.Get(ctx, rootPrefix, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	out := []*FlowRun{}
	for _, kv := range resp.Kvs {
		if !strings.HasSuffix(string(kv.Key), "/meta") {
			continue
		}

		var run FlowRun
		if err := json.Unmarshal(kv.Value, &run); err != nil {
			continue
		}
		out = append(out, &run)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Created.Before(out[j].Created)
	})

	return out, nil
}

// ============================================================
// UpdateFlowRunState (CAS on the previous record)
// ============================================================

func (s *EtcdStore) UpdateFlowRunState(ctx context.Context, id string, from, to state.Type) error {
	resp, err := s.cli.Get(ctx, metaKey(id))
	if err != nil {
		return err
	}
	if len(resp.Kvs) == 0 {
		return fmt.Errorf("run %q: %w", id, ErrNotFound)
	}

	var run FlowRun
	if err := json.Unmarshal(resp.Kvs[0].Value, &run); err != nil {
		return err
	}
	if run.State != from {
		return fmt.Errorf("run %q is %s, not %s: %w", id, run.State, from, ErrConflict)
	}

	run.State = to
	run.Updated = time.Now().UTC()

	data, err := json.Marshal(&run)
	if err != nil {
		return err
	}

	res, err := s.cli.Txn(ctx).
		If(clientv3.Compare(clientv3.Value(metaKey(id)), "=", string(resp.Kvs[0].Value))).
		Then(clientv3.OpPut(metaKey(id), string(data))).
		Commit()
	if err != nil {
		return err
	}
	if !res.Succeeded {
		return fmt.Errorf("run %q: %w", id, ErrConflict)
	}

	return nil
}

// ============================================================
// Task runs
// ============================================================

func (s *EtcdStore) PutTaskRun(ctx context.Context, run *TaskRun) error {
	if run == nil || run.RunID == "" || run.TaskID == "" {
		return fmt.Errorf("task run requires run id and task id")
	}

	data, err := json.Marshal(run)
	if err != nil {
		return err
	}

	_, err = s.cli.Put(ctx, taskKey(run.RunID, run.TaskID, run.RunNumber), string(data))
	return err
}

func (s *EtcdStore) ListTaskRuns(ctx context.Context, runID string) ([]*TaskRun, error) {
	resp, err := s.cli.Get(ctx, tasksPrefix(runID), clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	out := []*TaskRun{}
	for _, kv := range resp.Kvs {
		var run TaskRun
		if err := json.Unmarshal(kv.Value, &run); err != nil {
			continue
		}
		out = append(out, &run)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TaskID != out[j].TaskID {
			return out[i].TaskID < out[j].TaskID
		}
		return out[i].RunNumber < out[j].RunNumber
	})

	return out, nil
}

// ============================================================
// WatchRuns
// ============================================================

type etcdWatch struct {
	events chan WatchEvent
	cancel context.CancelFunc
}

func (w *etcdWatch) Events() <-chan WatchEvent { return w.events }
func (w *etcdWatch) Stop()                     { w.cancel() }

func (s *EtcdStore) WatchRuns(ctx context.Context) Watch {
	ctx, cancel := context.WithCancel(ctx)

	w := &etcdWatch{
		events: make(chan WatchEvent),
		cancel: cancel,
	}

	ch := s.cli.Watch(ctx, rootPrefix, clientv3.WithPrefix())

	go func() {
		defer close(w.events)

		for resp := range ch {
			for _, ev := range resp.Events {
				key := string(ev.Kv.Key)
				if !strings.HasSuffix(key, "/meta") {
					continue
				}

				var out WatchEvent
				switch {
				case ev.Type == clientv3.EventTypeDelete:
					id := strings.TrimSuffix(strings.TrimPrefix(key, rootPrefix+"/"), "/meta")
					out = WatchEvent{Type: WatchDeleted, Run: &FlowRun{ID: id}}
				case ev.IsCreate():
					out = WatchEvent{Type: WatchAdded}
				default:
					out = WatchEvent{Type: WatchUpdated}
				}

				if out.Run == nil {
					var run FlowRun
					if err := json.Unmarshal(ev.Kv.Value, &run); err != nil {
						continue
					}
					out.Run = &run
				}

				select {
				case w.events <- out:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return w
}
