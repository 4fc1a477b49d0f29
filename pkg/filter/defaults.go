package filter

import (
	"github.com/hurdad/flow-board/pkg/state"
)

// Defaults is the global filter applied when a dashboard session has no
// saved filters. It is constructed once and never mutated, so it is safe
// to share across any number of readers.
type Defaults struct {
	Flows       FlowFilter       `json:"flows"`
	Deployments DeploymentFilter `json:"deployments"`
	FlowRuns    FlowRunFilter    `json:"flow_runs"`
	TaskRuns    TaskRunFilter    `json:"task_runs"`
}

var _ GlobalFilter = Defaults{}

func (d Defaults) FlowDefaults() FlowFilter             { return d.Flows }
func (d Defaults) DeploymentDefaults() DeploymentFilter { return d.Deployments }
func (d Defaults) FlowRunDefaults() FlowRunFilter       { return d.FlowRuns }
func (d Defaults) TaskRunDefaults() TaskRunFilter       { return d.TaskRuns }

// NewDefaults returns the dashboard defaults: no filters on flows,
// deployments, or task runs; flow runs filtered to every lifecycle state
// over the last seven days through yesterday.
func NewDefaults() Defaults {
	return Defaults{
		FlowRuns: FlowRunFilter{
			States: DefaultRunStates(),
			TimeFrame: &TimeFrame{
				Dynamic: true,
				From:    TimeOffset{Value: 7, Unit: Days},
				To:      TimeOffset{Value: 1, Unit: Days},
			},
		},
	}
}

// DefaultRunStates returns one entry per dashboard-visible lifecycle state,
// in lifecycle order.
func DefaultRunStates() []RunState {
	types := []state.Type{
		state.Scheduled,
		state.Pending,
		state.Running,
		state.Completed,
		state.Failed,
		state.Cancelled,
	}

	states := make([]RunState, 0, len(types))
	for _, t := range types {
		states = append(states, RunState{Name: t.DisplayName(), Type: t})
	}
	return states
}
