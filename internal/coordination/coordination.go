// Package coordination triggers deployments through the dashboard API and
// waits for the resulting flow run to reach a terminal state.
package coordination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/hurdad/flow-board/internal/config"
	"github.com/hurdad/flow-board/internal/observability"
	"github.com/hurdad/flow-board/pkg/state"
)

// ErrPollBudgetExhausted is returned when the flow run has not reached a
// terminal state within the configured number of polls.
var ErrPollBudgetExhausted = errors.New("flow run did not reach a terminal state in time")

// Coordinator talks to the dashboard API.
type Coordinator struct {
	baseURL      string
	apiKey       string
	apiVersion   string
	pollInterval time.Duration
	maxPolls     int

	http *http.Client
	log  observability.Logger
}

// New builds a coordinator from runtime configuration.
func New(cfg config.Config, log observability.Logger) *Coordinator {
	return &Coordinator{
		baseURL:      strings.TrimRight(cfg.APIURL, "/"),
		apiKey:       cfg.APIKey,
		apiVersion:   cfg.APIVersion,
		pollInterval: cfg.PollInterval,
		maxPolls:     cfg.MaxPolls,
		http:         &http.Client{Timeout: cfg.RequestTimeout},
		log:          log,
	}
}

type flowRunState struct {
	State struct {
		Type state.Type `json:"type"`
	} `json:"state"`
}

// RunDeployment schedules a run of the named deployment and polls the flow
// run until it settles. It returns the flow run id and its final state.
func (c *Coordinator) RunDeployment(ctx context.Context, deployment string) (string, state.Type, error) {
	ctx, span := observability.Tracer("flow-board/coordination").Start(ctx, "deployment.run")
	defer span.End()

	span.SetAttributes(attribute.String("deployment.name", deployment))

	runID, err := c.scheduleNow(ctx, deployment)
	if err != nil {
		return "", "", fmt.Errorf("schedule deployment %q: %w", deployment, err)
	}

	c.log.Info(ctx, "flow run scheduled",
		slog.String("deployment", deployment),
		slog.String("run_id", runID),
	)

	final, err := c.awaitTerminal(ctx, runID)
	if err != nil {
		return runID, final, err
	}

	span.SetAttributes(attribute.String("run.state", string(final)))
	return runID, final, nil
}

func (c *Coordinator) scheduleNow(ctx context.Context, deployment string) (string, error) {
	var runID string
	path := fmt.Sprintf("/deployments/name/%s/schedule_now", deployment)
	if err := c.do(ctx, http.MethodPost, path, &runID); err != nil {
		return "", err
	}
	if runID == "" {
		return "", fmt.Errorf("api returned an empty flow run id")
	}
	return runID, nil
}

// FlowRunState fetches the current state of a flow run.
func (c *Coordinator) FlowRunState(ctx context.Context, runID string) (state.Type, error) {
	var run flowRunState
	if err := c.do(ctx, http.MethodGet, "/flow_runs/"+runID, &run); err != nil {
		return "", err
	}
	return run.State.Type, nil
}

func (c *Coordinator) awaitTerminal(ctx context.Context, runID string) (state.Type, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	var last state.Type
	for poll := 0; poll < c.maxPolls; poll++ {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}

		current, err := c.FlowRunState(ctx, runID)
		if err != nil {
			return last, fmt.Errorf("poll flow run %q: %w", runID, err)
		}
		last = current

		c.log.Info(ctx, "flow run polled",
			slog.String("run_id", runID),
			slog.String("state", string(current)),
		)

		if current.Terminal() {
			return current, nil
		}
	}

	return last, fmt.Errorf("flow run %q: %w", runID, ErrPollBudgetExhausted)
}

func (c *Coordinator) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	req.Header.Set("X-FLOWBOARD-API-VERSION", c.apiVersion)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
