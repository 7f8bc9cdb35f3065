package byplay

import (
	"fmt"

	"github.com/domonda/go-types/notnull"
)

// State is the lifecycle flag of a Job row.
// The numeric values are part of the on-disk contract and must never change.
type State int16

const (
	// StateNew marks a row eligible for reservation.
	StateNew State = 0
	// StateDone marks a row whose callable returned without error.
	StateDone State = 1
	// StateFailed marks a row whose callable errored or panicked.
	StateFailed State = 2
)

// String implements the fmt.Stringer interface.
func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int16(s))
	}
}

// Job is one row of the byplay table: a single scheduled callable invocation
// together with its lifecycle state.
//
// Done and failed jobs are retained indefinitely for human inspection; the
// engine never deletes them.
type Job struct {
	ID    int64        `db:"id"    json:"id"`
	Job   string       `db:"job"   json:"job"`
	Args  notnull.JSON `db:"args"  json:"args"`
	State State        `db:"state" json:"state"`
	Queue string       `db:"queue" json:"queue"`
}

// IsTerminal returns true if the job has reached DONE or FAILED
// and will never be re-executed by the engine.
// Valid to call on a nil receiver.
func (j *Job) IsTerminal() bool {
	if j == nil {
		return false
	}
	return j.State == StateDone || j.State == StateFailed
}

// HasFailed returns true if the job's State is FAILED.
// Valid to call on a nil receiver.
func (j *Job) HasFailed() bool {
	return j != nil && j.State == StateFailed
}

// String implements the fmt.Stringer interface.
// Valid to call on a nil receiver.
func (j *Job) String() string {
	if j == nil {
		return "nil Job"
	}
	return fmt.Sprintf("Job %d, job %s, queue %q, state %s", j.ID, j.Job, j.Queue, j.State)
}
