package jobs

import "github.com/vytor/pgnvault/internal/services"

// State is the lifecycle stage of a queued import.
type State string

const (
	StatePending   State = "pending"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Status reports on one queued import.
type Status struct {
	ID      string                  `json:"id"`
	Label   string                  `json:"label"`
	State   State                   `json:"state"`
	Summary *services.ImportSummary `json:"summary,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueImport(label, text string) (string, error)
	Status(id string) (Status, bool)
}
