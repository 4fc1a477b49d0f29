package store

import (
	"fmt"
	"time"

	"github.com/hurdad/flow-board/pkg/state"
)

// FlowRun is a persisted flow run record.
type FlowRun struct {
	ID         string     `json:"id"`
	Deployment string     `json:"deployment,omitempty"`
	State      state.Type `json:"state"`
	Created    time.Time  `json:"created"`
	Updated    time.Time  `json:"updated"`
}

// TaskRun is one attempt at a task within a flow run. Retries get a fresh
// record with the next run number.
type TaskRun struct {
	ID             string     `json:"id"`
	RunID          string     `json:"run_id"`
	TaskID         string     `json:"task_id"`
	TaskName       string     `json:"task_name"`
	RunNumber      int        `json:"run_number"`
	State          state.Type `json:"state"`
	ScheduledStart *time.Time `json:"scheduled_start,omitempty"`
	Created        time.Time  `json:"created"`
	Started        *time.Time `json:"started,omitempty"`
	Finished       *time.Time `json:"finished,omitempty"`
}

// TaskRunID builds the record identity <run-id>/<task-id>#<run-number>.
func TaskRunID(runID, taskID string, runNumber int) string {
	return fmt.Sprintf("%s/%s#%d", runID, taskID, runNumber)
}
