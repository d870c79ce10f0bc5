package hg

import "hg-go/internal/model"

// Store provides persistence for timers and their event history.
type Store interface {
	// FindTimer returns the timer with the given ID, or nil if there is none.
	FindTimer(id string) (*model.Timer, error)

	// ListTimers returns all timers, oldest first.
	ListTimers() ([]*model.Timer, error)

	// SaveTimer inserts the timer or replaces the stored copy.
	SaveTimer(timer *model.Timer) error

	// DeleteTimer removes a timer and its events.
	DeleteTimer(id string) error

	// AppendEvent records a transition.
	AppendEvent(event *model.TimerEvent) error

	// ListEvents returns up to limit events for a timer, newest first.
	ListEvents(timerID string, limit int) ([]*model.TimerEvent, error)

	// Close closes the underlying connection.
	Close() error
}
