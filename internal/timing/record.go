package timing

import (
	"fmt"
	"time"
)

// Record is a field-for-field snapshot of a Timer for persistence. It
// carries no behaviour; FromRecord validates it on the way back in.
type Record struct {
	State      string        `json:"state" toml:"state" yaml:"state"`
	StartTime  *time.Time    `json:"start_time,omitempty" toml:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime    *time.Time    `json:"end_time,omitempty" toml:"end_time,omitempty" yaml:"end_time,omitempty"`
	PauseTime  *time.Time    `json:"pause_time,omitempty" toml:"pause_time,omitempty" yaml:"pause_time,omitempty"`
	TimerStart *StartRecord  `json:"timer_start,omitempty" toml:"timer_start,omitempty" yaml:"timer_start,omitempty"`
	Options    OptionsRecord `json:"options" toml:"options" yaml:"options"`
}

// StartRecord is the persisted form of a Start. Only the fields of its
// Kind are set.
type StartRecord struct {
	Kind     string     `json:"kind" toml:"kind" yaml:"kind"`
	Duration string     `json:"duration,omitempty" toml:"duration,omitempty" yaml:"duration,omitempty"`
	At       *time.Time `json:"at,omitempty" toml:"at,omitempty" yaml:"at,omitempty"`
	Repeat   string     `json:"repeat,omitempty" toml:"repeat,omitempty" yaml:"repeat,omitempty"`
}

// OptionsRecord is the persisted form of Options.
type OptionsRecord struct {
	Title            string `json:"title,omitempty" toml:"title,omitempty" yaml:"title,omitempty"`
	LoopTimer        bool   `json:"loop_timer" toml:"loop_timer" yaml:"loop_timer"`
	ShowTimeElapsed  bool   `json:"show_time_elapsed" toml:"show_time_elapsed" yaml:"show_time_elapsed"`
	Sound            string `json:"sound,omitempty" toml:"sound,omitempty" yaml:"sound,omitempty"`
	LoopSound        bool   `json:"loop_sound" toml:"loop_sound" yaml:"loop_sound"`
	CloseWhenExpired bool   `json:"close_when_expired" toml:"close_when_expired" yaml:"close_when_expired"`
}

// ToRecord snapshots the timer.
func (t *Timer) ToRecord() Record {
	r := Record{
		State:      t.state.String(),
		TimerStart: StartToRecord(t.timerStart),
		Options:    t.options.ToRecord(),
	}
	if t.state != Stopped {
		r.StartTime = timePtr(t.startTime)
		r.EndTime = timePtr(t.endTime)
	}
	if t.state == Paused {
		r.PauseTime = timePtr(t.pauseTime)
	}
	return r
}

// FromRecord rebuilds a timer from r. Start and end times must be present
// exactly when the state is not stopped, a pause time exactly when paused,
// and a start exactly when the timer has a window. No event is published.
func FromRecord(r Record, clock Clock) (*Timer, error) {
	state, err := ParseState(r.State)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	hasWindow := state != Stopped
	if (r.StartTime != nil) != hasWindow || (r.EndTime != nil) != hasWindow {
		return nil, fmt.Errorf("%w: %s timer must %shave start and end times", ErrInvalidRecord, state, negate(hasWindow))
	}
	if (r.PauseTime != nil) != (state == Paused) {
		return nil, fmt.Errorf("%w: %s timer must %shave a pause time", ErrInvalidRecord, state, negate(state == Paused))
	}
	if (r.TimerStart != nil) != hasWindow {
		return nil, fmt.Errorf("%w: %s timer must %shave a timer start", ErrInvalidRecord, state, negate(hasWindow))
	}

	start, err := StartFromRecord(r.TimerStart)
	if err != nil {
		return nil, err
	}

	t := NewTimer(OptionsFromRecord(r.Options), clock)
	if !hasWindow {
		return t, nil
	}

	if r.EndTime.Before(*r.StartTime) {
		return nil, fmt.Errorf("%w: end time %s is before start time %s", ErrInvalidRecord, r.EndTime, r.StartTime)
	}

	t.state = state
	t.startTime = *r.StartTime
	t.endTime = *r.EndTime
	if r.PauseTime != nil {
		t.pauseTime = *r.PauseTime
	}
	t.timerStart = start
	t.refresh()
	return t, nil
}

// StartToRecord converts s to its persisted form. A nil start gives nil.
func StartToRecord(s Start) *StartRecord {
	switch s := s.(type) {
	case TimeSpanStart:
		return &StartRecord{Kind: KindTimeSpan.String(), Duration: s.Duration.String()}
	case DateTimeStart:
		return &StartRecord{Kind: KindDateTime.String(), At: timePtr(s.At), Repeat: s.Repeat.String()}
	default:
		return nil
	}
}

// StartFromRecord is the inverse of StartToRecord.
func StartFromRecord(r *StartRecord) (Start, error) {
	if r == nil {
		return nil, nil
	}
	switch r.Kind {
	case KindTimeSpan.String():
		d, err := time.ParseDuration(r.Duration)
		if err != nil {
			return nil, fmt.Errorf("%w: duration: %v", ErrInvalidRecord, err)
		}
		return TimeSpanStart{Duration: d}, nil
	case KindDateTime.String():
		if r.At == nil {
			return nil, fmt.Errorf("%w: datetime start without a target time", ErrInvalidRecord)
		}
		repeat, err := ParseRecurrence(r.Repeat)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
		return DateTimeStart{At: *r.At, Repeat: repeat}, nil
	default:
		return nil, fmt.Errorf("%w: unknown start kind %q", ErrInvalidRecord, r.Kind)
	}
}

// ToRecord converts o to its persisted form.
func (o Options) ToRecord() OptionsRecord {
	return OptionsRecord{
		Title:            o.title,
		LoopTimer:        o.loopTimer,
		ShowTimeElapsed:  o.showTimeElapsed,
		Sound:            o.sound,
		LoopSound:        o.loopSound,
		CloseWhenExpired: o.closeWhenExpired,
	}
}

// OptionsFromRecord is the inverse of Options.ToRecord.
func OptionsFromRecord(r OptionsRecord) Options {
	return Options{
		title:            r.Title,
		loopTimer:        r.LoopTimer,
		showTimeElapsed:  r.ShowTimeElapsed,
		sound:            r.Sound,
		loopSound:        r.LoopSound,
		closeWhenExpired: r.CloseWhenExpired,
	}
}

// timePtr strips the monotonic reading, which has no meaning once stored.
func timePtr(t time.Time) *time.Time {
	t = t.Round(0)
	return &t
}

func negate(b bool) string {
	if b {
		return ""
	}
	return "not "
}
