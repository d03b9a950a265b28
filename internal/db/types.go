package db

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus constants
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run represents one recorded synthesis run
type Run struct {
	ID           uuid.UUID  `json:"id"`
	RangeStart   time.Time  `json:"range_start"`
	RangeEnd     time.Time  `json:"range_end"`
	Status       string     `json:"status"`
	Insights     int        `json:"insights"`
	Created      int        `json:"created"`
	Updated      int        `json:"updated"`
	Deleted      int        `json:"deleted"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// RunOutcome is what a successful run reports when it completes.
type RunOutcome struct {
	Insights int
	Created  int
	Updated  int
	Deleted  int
}
