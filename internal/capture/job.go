package capture

import (
	"time"

	"livecap/internal/services"
)

const component = "capture"

// TimestampLayout names output files; it sorts lexically in time order.
const TimestampLayout = "2006-01-02_15-04-05"

// Outcome classifies how a job ended.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Job is one capture invocation for one source.
type Job struct {
	ID         string    `json:"id"`
	SourceID   string    `json:"source_id"`
	Address    string    `json:"address"`
	SessionID  string    `json:"session_id"`
	OutputPath string    `json:"output_path"`
	StartedAt  time.Time `json:"started_at"`
}

// Result describes a finished job. Err holds the executor failure and
// ReleaseErr the marker removal failure; either may be set independently.
type Result struct {
	Job        Job       `json:"job"`
	Outcome    Outcome   `json:"outcome"`
	Err        error     `json:"-"`
	ReleaseErr error     `json:"-"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration reports how long the job ran.
func (r Result) Duration() time.Duration {
	if r.Job.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.Job.StartedAt)
}

// ErrorKind returns the services.Kind label for the job failure, or "" when
// the executor succeeded.
func (r Result) ErrorKind() string {
	return services.Kind(r.Err)
}
