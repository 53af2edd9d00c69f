package domain

import "time"

// FailedProduct identifies one product that ended the run with an error
type FailedProduct struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RunSummary aggregates the outcome of one batched sync run
type RunSummary struct {
	RunID          string          `json:"runId"`
	Attempted      int             `json:"attempted"`
	Succeeded      int             `json:"succeeded"`
	Failed         int             `json:"failed"`
	Skipped        int             `json:"skipped"`
	FailedProducts []FailedProduct `json:"failedProducts,omitempty"`
	StartedAt      time.Time       `json:"startedAt"`
	FinishedAt     time.Time       `json:"finishedAt"`
}

// HasErrors reports whether any product failed during the run
func (s *RunSummary) HasErrors() bool { return s.Failed > 0 }
