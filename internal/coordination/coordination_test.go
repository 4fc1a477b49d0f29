package coordination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hurdad/flow-board/internal/config"
	"github.com/hurdad/flow-board/internal/observability"
	"github.com/hurdad/flow-board/pkg/state"
)

func newTestCoordinator(t *testing.T, handler http.Handler, maxPolls int) *Coordinator {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Config{
		APIURL:         server.URL,
		APIKey:         "secret",
		APIVersion:     config.APIVersion,
		RequestTimeout: 5 * time.Second,
		PollInterval:   time.Millisecond,
		MaxPolls:       maxPolls,
	}

	return New(cfg, observability.NewStdLogger())
}

func runStateBody(t state.Type) any {
	return map[string]any{"state": map[string]any{"type": string(t)}}
}

func TestRunDeploymentReachesTerminalState(t *testing.T) {
	var polls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/deployments/name/healthcheck/schedule_now", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if got := r.Header.Get("X-FLOWBOARD-API-VERSION"); got != config.APIVersion {
			t.Errorf("unexpected api version header %q", got)
		}
		json.NewEncoder(w).Encode("run-123")
	})
	mux.HandleFunc("/flow_runs/run-123", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 3 {
			json.NewEncoder(w).Encode(runStateBody(state.Running))
			return
		}
		json.NewEncoder(w).Encode(runStateBody(state.Completed))
	})

	coord := newTestCoordinator(t, mux, 60)

	runID, final, err := coord.RunDeployment(context.Background(), "healthcheck")
	if err != nil {
		t.Fatalf("run deployment: %v", err)
	}
	if runID != "run-123" {
		t.Fatalf("unexpected run id %q", runID)
	}
	if final != state.Completed {
		t.Fatalf("expected COMPLETED, got %s", final)
	}
	if polls.Load() != 3 {
		t.Fatalf("expected 3 polls, got %d", polls.Load())
	}
}

func TestRunDeploymentReportsFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/deployments/name/broken/schedule_now", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode("run-666")
	})
	mux.HandleFunc("/flow_runs/run-666", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(runStateBody(state.Crashed))
	})

	coord := newTestCoordinator(t, mux, 60)

	_, final, err := coord.RunDeployment(context.Background(), "broken")
	if err != nil {
		t.Fatalf("run deployment: %v", err)
	}
	if final != state.Crashed {
		t.Fatalf("crashed runs are terminal, got %s", final)
	}
}

func TestRunDeploymentPollBudget(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/deployments/name/slow/schedule_now", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode("run-1")
	})
	mux.HandleFunc("/flow_runs/run-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(runStateBody(state.Running))
	})

	coord := newTestCoordinator(t, mux, 3)

	_, final, err := coord.RunDeployment(context.Background(), "slow")
	if !errors.Is(err, ErrPollBudgetExhausted) {
		t.Fatalf("expected poll budget error, got %v", err)
	}
	if final != state.Running {
		t.Fatalf("expected the last observed state, got %s", final)
	}
}

func TestScheduleErrorSurfacesStatus(t *testing.T) {
	coord := newTestCoordinator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "deployment not found", http.StatusNotFound)
	}), 3)

	_, _, err := coord.RunDeployment(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for missing deployment")
	}
	if want := fmt.Sprintf("status %d", http.StatusNotFound); !strings.Contains(err.Error(), want) {
		t.Fatalf("expected %q in error, got %v", want, err)
	}
}
