// Package job holds the background-job model: the job row, its status
// machine, the in-memory job table, and the cancellation set.
//
// Rows are created by the orchestrator's Start path and mutated only by its
// single worker; external callers see copies. Rows are never deleted during
// the process lifetime.
package job

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of one generate job.
type Status string

const (
	Pending   Status = "pending"
	Running   Status = "running"
	Completed Status = "completed"
	Failed    Status = "failed"
	Cancelled Status = "cancelled"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	switch s {
	case Completed, Failed, Cancelled:
		return true
	}
	return false
}

// Job is one generate request tracked by the orchestrator.
type Job struct {
	ID         string
	BoardID    string
	Variant    string
	LayoutPath string

	Status   Status
	Progress int
	Err      string

	// ArchivePath is set only on Completed jobs; a cancelled job's archive
	// may exist on disk but is never advertised.
	ArchivePath string

	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}

// New creates a Pending job row with a generated unique id.
func New(layoutPath, boardID, variant string) *Job {
	return &Job{
		ID:         uuid.NewString(),
		BoardID:    boardID,
		Variant:    variant,
		LayoutPath: layoutPath,
		Status:     Pending,
		CreatedAt:  time.Now().UTC(),
	}
}
