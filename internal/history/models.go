package history

import "time"

// Status is the final (or current) state of a recorded build.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	// StatusPartial marks a build stopped early by its end point.
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
	StatusDiscarded Status = "discarded"
)

// Build is one recorded orchestrator run.
type Build struct {
	ID           string
	Assembly     string
	Status       Status
	EndPoint     string
	Mode         string
	Components   int
	StepsRun     int
	StepsSkipped int
	StartedAt    time.Time
	FinishedAt   time.Time
	ErrorMessage string
	ContextDump  string
}

// Finished reports whether the build has a final status.
func (b Build) Finished() bool {
	return b.Status != StatusRunning && !b.FinishedAt.IsZero()
}

// Duration returns the wall time of a finished build.
func (b Build) Duration() time.Duration {
	if b.FinishedAt.IsZero() {
		return 0
	}
	return b.FinishedAt.Sub(b.StartedAt)
}

// Outcome is what Finish records.
type Outcome struct {
	Status       Status
	StepsRun     int
	StepsSkipped int
	ErrorMessage string
	ContextDump  string
}
