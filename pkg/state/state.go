package state

// Type is a run lifecycle status code.
type Type string

const (
	Scheduled Type = "SCHEDULED"
	Pending   Type = "PENDING"
	Running   Type = "RUNNING"
	Completed Type = "COMPLETED"
	Failed    Type = "FAILED"
	Cancelled Type = "CANCELLED"

	// Crashed marks runs whose infrastructure died out from under them.
	// It is terminal but is not part of the dashboard filter vocabulary.
	Crashed Type = "CRASHED"
)

var displayNames = map[Type]string{
	Scheduled: "Scheduled",
	Pending:   "Pending",
	Running:   "Running",
	Completed: "Completed",
	Failed:    "Failed",
	Cancelled: "Cancelled",
	Crashed:   "Crashed",
}

// DisplayName returns the human-readable label for the status code.
func (t Type) DisplayName() string {
	if name, ok := displayNames[t]; ok {
		return name
	}
	return string(t)
}

// Valid reports whether t is a known status code.
func (t Type) Valid() bool {
	_, ok := displayNames[t]
	return ok
}

// Terminal reports whether a run in this state will never transition again.
func (t Type) Terminal() bool {
	switch t {
	case Completed, Failed, Cancelled, Crashed:
		return true
	}
	return false
}
