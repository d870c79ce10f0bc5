package model

import (
	"time"

	"hg-go/internal/timing"
)

// Timer is a persisted countdown.
type Timer struct {
	ID        string // UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	Record    timing.Record // Snapshot of the timer state machine
}

// TimerEvent records a transition of a persisted timer.
type TimerEvent struct {
	ID         int64  // Auto-increment
	TimerID    string // Foreign key to Timer
	Kind       string // "started", "paused", "resumed", "stopped" or "expired"
	State      string // Timer state after the transition
	OccurredAt time.Time
}
