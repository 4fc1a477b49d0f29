package filter

import (
	"github.com/hurdad/flow-board/pkg/state"
)

// RunState pairs a lifecycle status code with the label the dashboard
// renders for it.
type RunState struct {
	Name string     `json:"name"`
	Type state.Type `json:"type"`
}

// TimeUnit is the unit of a relative time offset.
type TimeUnit string

const (
	Days    TimeUnit = "days"
	Hours   TimeUnit = "hours"
	Minutes TimeUnit = "minutes"
)

// TimeOffset is a distance back from "now", e.g. {7, days}.
type TimeOffset struct {
	Value int      `json:"value"`
	Unit  TimeUnit `json:"unit"`
}

// TimeFrame is a relative time window. When Dynamic is set the window is
// re-resolved against the current time each time it is evaluated rather
// than freezing an absolute pair of timestamps.
type TimeFrame struct {
	Dynamic bool       `json:"dynamic"`
	From    TimeOffset `json:"from"`
	To      TimeOffset `json:"to"`
}

// FlowFilter, DeploymentFilter, and TaskRunFilter carry no defaults; they
// exist so each entity category keeps its own type as the dashboard grows.
type (
	FlowFilter       struct{}
	DeploymentFilter struct{}
	TaskRunFilter    struct{}
)

// FlowRunFilter holds the default filter payload for flow runs.
type FlowRunFilter struct {
	States    []RunState `json:"states,omitempty"`
	TimeFrame *TimeFrame `json:"timeframe,omitempty"`
}

// GlobalFilter is the shape consumed by dashboard code: one default filter
// payload per entity category.
type GlobalFilter interface {
	FlowDefaults() FlowFilter
	DeploymentDefaults() DeploymentFilter
	FlowRunDefaults() FlowRunFilter
	TaskRunDefaults() TaskRunFilter
}
