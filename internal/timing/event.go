package timing

import (
	"fmt"
	"slices"
)

// EventKind identifies what caused an Event.
type EventKind uint8

const (
	EventStarted EventKind = iota + 1
	EventPaused
	EventResumed
	EventStopped
	EventExpired
	EventTick
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventStopped:
		return "stopped"
	case EventExpired:
		return "expired"
	case EventTick:
		return "tick"
	default:
		return fmt.Sprintf("event(%d)", uint8(k))
	}
}

// Timer field names reported in Event.Changed.
const (
	FieldState             = "State"
	FieldStartTime         = "StartTime"
	FieldEndTime           = "EndTime"
	FieldPauseTime         = "PauseTime"
	FieldTimerStart        = "TimerStart"
	FieldPercentageLeft    = "PercentageLeft"
	FieldPercentageElapsed = "PercentageElapsed"
	FieldTimeLeft          = "TimeLeft"
	FieldTimeElapsed       = "TimeElapsed"
	FieldTimeExpired       = "TimeExpired"
	FieldTimeLeftWeeks     = "TimeLeftWeeks"
	FieldTimeLeftDays      = "TimeLeftDays"
	FieldTimeLeftHours     = "TimeLeftHours"
	FieldTimeLeftMinutes   = "TimeLeftMinutes"
	FieldTimeLeftSeconds   = "TimeLeftSeconds"
)

// Event is published after every transition and tick, once all derived
// values have been recomputed.
type Event struct {
	Kind EventKind

	// State is the timer state after the transition.
	State State

	// Changed lists the fields whose value differs from the previous event.
	Changed []string
}

// Has reports whether field is listed in Changed.
func (e Event) Has(field string) bool {
	return slices.Contains(e.Changed, field)
}

type subscription struct {
	id int
	fn func(Event)
}

// Subscribe registers fn to receive every event synchronously, in
// registration order. The returned func removes the subscription.
func (t *Timer) Subscribe(fn func(Event)) (unsubscribe func()) {
	t.mustBeActive()
	t.nextSubID++
	id := t.nextSubID
	t.subs = append(t.subs, subscription{id: id, fn: fn})
	return func() {
		t.subs = slices.DeleteFunc(t.subs, func(s subscription) bool { return s.id == id })
	}
}

func (t *Timer) publish(ev Event) {
	for _, s := range slices.Clone(t.subs) {
		s.fn(ev)
	}
}
