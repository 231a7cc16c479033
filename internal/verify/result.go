package verify

import "time"

// Status is the outcome of one run.
type Status string

const (
	StatusPassed           Status = "passed"
	StatusFailed           Status = "failed"
	StatusNavigationFailed Status = "navigation_failed"
	StatusSessionFailed    Status = "session_failed"
	StatusInvalid          Status = "invalid"
)

// Result records what a run did. It is informational; the returned error is authoritative.
type Result struct {
	RunID      string    `json:"run_id"`
	Script     string    `json:"script"`
	BaseURL    string    `json:"base_url"`
	Status     Status    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	FailedStep string    `json:"failed_step,omitempty"`
	Error      string    `json:"error,omitempty"`
	Artifacts  []string  `json:"artifacts,omitempty"`
}

// Duration is how long the run took.
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Passed reports whether every step passed and the success artifact was written.
func (r *Result) Passed() bool { return r.Status == StatusPassed }
