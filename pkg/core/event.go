package core

import (
	"fmt"
	"time"
)

// JobEvent reports a status change of an import job.
type JobEvent struct {
	Source    string    `json:"source"`
	RunID     string    `json:"run_id,omitempty"`
	Status    JobStatus `json:"status"`
	Stats     RunStats  `json:"stats"`
	Err       error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

func (e JobEvent) String() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Status, e.Source, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Status, e.Source)
}
