package core

import (
	"time"

	"github.com/aretw0/introspection"
)

// RunState exposes a run for observability.
type RunState struct {
	ID        string    `json:"id"`
	Reference string    `json:"reference"`
	Status    JobStatus `json:"status"`
	Started   time.Time `json:"started"`
	Stats     RunStats  `json:"stats"`
}

// State implements introspection.Introspectable.
func (r *Run) State() any {
	return RunState{
		ID:        r.ID,
		Reference: r.Reference,
		Status:    r.Status(),
		Started:   r.Started,
		Stats:     r.Stats(),
	}
}

// ComponentType implements introspection.Component.
func (r *Run) ComponentType() string {
	return "import-run"
}

var _ introspection.Introspectable = (*Run)(nil)
var _ introspection.Component = (*Run)(nil)
