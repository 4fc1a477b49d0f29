package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/server/v3/embed"

	"github.com/hurdad/flow-board/pkg/state"
)

func TestEtcdRunLifecycle(t *testing.T) {
	store := newTestEtcdStore(t)
	ctx := context.Background()

	run := &FlowRun{
		ID:         "run-1",
		Deployment: "healthcheck/manual",
		State:      state.Pending,
		Created:    time.Now().UTC(),
	}
	if err := store.CreateFlowRun(ctx, run); err != nil {
		t.Fatalf("create flow run: %v", err)
	}

	if err := store.CreateFlowRun(ctx, run); err == nil {
		t.Fatal("expected error creating a duplicate run")
	}

	got, err := store.GetFlowRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get flow run: %v", err)
	}
	if got.State != state.Pending || got.Deployment != "healthcheck/manual" {
		t.Fatalf("unexpected run record: %+v", got)
	}

	if err := store.UpdateFlowRunState(ctx, "run-1", state.Pending, state.Running); err != nil {
		t.Fatalf("transition to running: %v", err)
	}

	err = store.UpdateFlowRunState(ctx, "run-1", state.Pending, state.Completed)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("stale transition should conflict, got %v", err)
	}

	runs, err := store.ListFlowRuns(ctx)
	if err != nil {
		t.Fatalf("list flow runs: %v", err)
	}
	if len(runs) != 1 || runs[0].State != state.Running {
		t.Fatalf("unexpected run list: %+v", runs)
	}
}

func TestEtcdTaskRuns(t *testing.T) {
	store := newTestEtcdStore(t)
	ctx := context.Background()

	for n := 1; n <= 2; n++ {
		err := store.PutTaskRun(ctx, &TaskRun{
			ID:        TaskRunID("run-1", "say-hi", n),
			RunID:     "run-1",
			TaskID:    "say-hi",
			TaskName:  "say-hi",
			RunNumber: n,
			State:     state.Failed,
			Created:   time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("put task run %d: %v", n, err)
		}
	}

	tasks, err := store.ListTaskRuns(ctx, "run-1")
	if err != nil {
		t.Fatalf("list task runs: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 task run records, got %d", len(tasks))
	}
	if tasks[0].RunNumber != 1 || tasks[1].RunNumber != 2 {
		t.Fatalf("expected attempts sorted by run number, got %+v", tasks)
	}
}

func TestEtcdWatchRuns(t *testing.T) {
	store := newTestEtcdStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watch := store.WatchRuns(ctx)
	defer watch.Stop()

	run := &FlowRun{ID: "run-w", State: state.Pending, Created: time.Now().UTC()}
	if err := store.CreateFlowRun(ctx, run); err != nil {
		t.Fatalf("create flow run: %v", err)
	}
	if err := store.UpdateFlowRunState(ctx, "run-w", state.Pending, state.Running); err != nil {
		t.Fatalf("update flow run: %v", err)
	}

	expectEvent(t, watch, WatchAdded, "run-w")
	expectEvent(t, watch, WatchUpdated, "run-w")
}

func expectEvent(t *testing.T, watch Watch, want WatchEventType, id string) {
	t.Helper()

	select {
	case ev, ok := <-watch.Events():
		if !ok {
			t.Fatal("watch stream closed")
		}
		if ev.Type != want || ev.Run == nil || ev.Run.ID != id {
			t.Fatalf("expected %s for %s, got %+v", want, id, ev)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("timed out waiting for %s event", want)
	}
}

func newTestEtcdStore(t *testing.T) *EtcdStore {
	t.Helper()

	clientURL, peerURL := newEtcdURLs(t)
	etcd := startEmbeddedEtcd(t, clientURL, peerURL)
	t.Cleanup(etcd.Close)

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   []string{clientURL.String()},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("create etcd client: %v", err)
	}
	t.Cleanup(func() { cli.Close() })

	return &EtcdStore{cli: cli}
}

func startEmbeddedEtcd(t *testing.T, clientURL, peerURL url.URL) *embed.Etcd {
	t.Helper()

	cfg := embed.NewConfig()
	cfg.Dir = t.TempDir()
	cfg.LogLevel = "error"
	cfg.ListenClientUrls = []url.URL{clientURL}
	cfg.AdvertiseClientUrls = []url.URL{clientURL}
	cfg.ListenPeerUrls = []url.URL{peerURL}
	cfg.AdvertisePeerUrls = []url.URL{peerURL}
	cfg.InitialCluster = fmt.Sprintf("%s=%s", cfg.Name, peerURL.String())

	etcd, err := embed.StartEtcd(cfg)
	if err != nil {
		t.Fatalf("start embedded etcd: %v", err)
	}

	select {
	case <-etcd.Server.ReadyNotify():
	case <-time.After(10 * time.Second):
		etcd.Server.Stop()
		t.Fatalf("embedded etcd not ready")
	}

	return etcd
}

func newEtcdURLs(t *testing.T) (url.URL, url.URL) {
	t.Helper()

	clientPort := freePort(t)
	peerPort := freePort(t)

	clientURL := url.URL{Scheme: "http", Host: net.JoinHostPort("127.0.0.1", clientPort)}
	peerURL := url.URL{Scheme: "http", Host: net.JoinHostPort("127.0.0.1", peerPort)}

	return clientURL, peerURL
}

func freePort(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()

	_, port, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}

	return port
}
