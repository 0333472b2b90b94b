package harvest

import (
	"sync"

	"github.com/agentstation/utc"
)

// Status is the state of a harvest job.
type Status string

// Job statuses.
const (
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// RecordError is a failure tied to one identifier.
type RecordError struct {
	Identifier string        `json:"identifier"`
	Kind       OperationKind `json:"kind"`
	Message    string        `json:"message"`
}

// Result summarizes one harvest job. It is safe for concurrent use while
// the job runs.
type Result struct {
	JobID      string        `json:"job_id"`
	SourceID   string        `json:"source_id"`
	Status     Status        `json:"status"`
	StartedAt  utc.Time      `json:"started_at"`
	FinishedAt *utc.Time     `json:"finished_at,omitempty"`
	Planned    Counts        `json:"planned"`
	Applied    Counts        `json:"applied"`
	Failed     int           `json:"failed"`
	Errors     []RecordError `json:"errors,omitempty"`
	GatherErr  string        `json:"gather_error,omitempty"`

	mu sync.Mutex
}

// NewResult starts a running job.
func NewResult(jobID, sourceID string) *Result {
	return &Result{
		JobID:     jobID,
		SourceID:  sourceID,
		Status:    StatusRunning,
		StartedAt: utc.Now(),
	}
}

// Record notes the outcome of one operation.
func (r *Result) Record(op Operation, applied *Applied, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.Failed++
		r.Errors = append(r.Errors, RecordError{Identifier: op.Identifier, Kind: op.Kind, Message: err.Error()})
		return
	}
	kind := op.Kind
	if applied != nil {
		kind = applied.Kind
	}
	r.Applied.Add(kind)
}

// Finish closes the job. A gather error fails the job; per-record
// failures do not.
func (r *Result) Finish(gatherErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := utc.Now()
	r.FinishedAt = &now
	r.Status = StatusCompleted
	if gatherErr != nil {
		r.Status = StatusFailed
		r.GatherErr = gatherErr.Error()
	}
}

// Snapshot returns a copy that is safe to read without locking.
func (r *Result) Snapshot() *Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &Result{
		JobID:      r.JobID,
		SourceID:   r.SourceID,
		Status:     r.Status,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Planned:    r.Planned,
		Applied:    r.Applied,
		Failed:     r.Failed,
		Errors:     append([]RecordError(nil), r.Errors...),
		GatherErr:  r.GatherErr,
	}
}
