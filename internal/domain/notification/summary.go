package notification

import "time"

// RunSummary is the result of one expiry check run.
type RunSummary struct {
	Success       bool          `json:"success"`
	Message       string        `json:"message"`
	Error         string        `json:"error,omitempty"`
	Skipped       bool          `json:"skipped,omitempty"` // Another run held the lease
	RecordsFound  int           `json:"recordsFound"`
	Candidates    int           `json:"candidates"`
	Groups        int           `json:"groups"`
	UsersNotified int           `json:"usersNotified"`
	RecordsMarked int           `json:"recordsMarked"`
	StartedAt     time.Time     `json:"startedAt"`
	Duration      time.Duration `json:"durationNs"`
}
