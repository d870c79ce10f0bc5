package timing

import (
	"strings"
	"time"
)

// maxLoopIterations bounds the search for the current window of a looping
// timer, so a start that barely advances cannot stall Tick.
const maxLoopIterations = 10000

// Timer is a countdown. The zero value is not usable; create timers with
// NewTimer or FromRecord.
type Timer struct {
	clock   Clock
	options Options

	state      State
	startTime  time.Time
	endTime    time.Time
	pauseTime  time.Time
	timerStart Start

	derived Derived
	last    view

	subs      []subscription
	nextSubID int
	closed    bool
}

// NewTimer returns a stopped timer. A nil clock uses the system clock.
func NewTimer(opts Options, clock Clock) *Timer {
	if clock == nil {
		clock = RealClock{}
	}
	t := &Timer{clock: clock, options: opts}
	t.refresh()
	return t
}

// Options returns the options the timer was created with.
func (t *Timer) Options() Options { return t.options }

// State returns the current state.
func (t *Timer) State() State { return t.state }

// TimerStart returns the start the current window came from, or nil while
// stopped.
func (t *Timer) TimerStart() Start { return t.timerStart }

// StartTime returns when the current window began.
func (t *Timer) StartTime() (time.Time, bool) {
	return t.startTime, t.state != Stopped
}

// EndTime returns when the current window ends.
func (t *Timer) EndTime() (time.Time, bool) {
	return t.endTime, t.state != Stopped
}

// PauseTime returns when the timer was paused.
func (t *Timer) PauseTime() (time.Time, bool) {
	return t.pauseTime, t.state == Paused
}

// TimeLeft returns the remaining time, never negative.
func (t *Timer) TimeLeft() (time.Duration, bool) { return t.timeLeftAt(t.clock.Now()) }

// TimeElapsed returns the time since the window began. A paused timer
// reports the time elapsed up to the pause.
func (t *Timer) TimeElapsed() (time.Duration, bool) { return t.timeElapsedAt(t.clock.Now()) }

// TimeExpired returns how long ago the timer expired.
func (t *Timer) TimeExpired() (time.Duration, bool) { return t.timeExpiredAt(t.clock.Now()) }

// TotalTime returns the length of the current window.
func (t *Timer) TotalTime() (time.Duration, bool) {
	if t.state == Stopped {
		return 0, false
	}
	return t.endTime.Sub(t.startTime), true
}

// Derived returns the display values computed at the last transition or
// tick.
func (t *Timer) Derived() Derived { return t.derived }

// SupportsPause reports whether Pause can succeed for the current start.
// Pausing a wall-clock deadline is meaningless, so only duration starts
// qualify.
func (t *Timer) SupportsPause() bool { return t.isTimeSpanOrNone() }

// SupportsLooping reports whether the timer restarts itself on expiry when
// LoopTimer is set.
func (t *Timer) SupportsLooping() bool { return t.isTimeSpanOrNone() }

// SupportsRestart reports whether Restart can succeed.
func (t *Timer) SupportsRestart() bool {
	return t.timerStart != nil && t.timerStart.Kind() == KindTimeSpan
}

func (t *Timer) SupportsProgress() bool { return true }

func (t *Timer) SupportsTimeElapsed() bool { return true }

func (t *Timer) isTimeSpanOrNone() bool {
	return t.timerStart == nil || t.timerStart.Kind() == KindTimeSpan
}

// Start begins a countdown from s at the current instant. It reports false
// and leaves the timer untouched when s cannot produce an end time.
func (t *Timer) Start(s Start) bool {
	t.mustBeActive()
	if s == nil {
		return false
	}

	now := t.clock.Now()
	end, ok := s.EndTime(now)
	if !ok {
		return false
	}

	t.timerStart = s
	t.startWindow(now, end)
	return true
}

// Pause freezes the remaining time of a running duration timer.
func (t *Timer) Pause() bool {
	t.mustBeActive()
	if t.state != Running || !t.SupportsPause() {
		return false
	}

	now := t.clock.Now()
	if !now.Before(t.endTime) {
		t.expire()
		return false
	}

	t.state = Paused
	t.pauseTime = now
	t.transition(EventPaused)
	return true
}

// Resume continues a paused timer with the time it had left when paused.
func (t *Timer) Resume() bool {
	t.mustBeActive()
	if t.state != Paused {
		return false
	}

	now := t.clock.Now()
	t.endTime = t.endTime.Add(now.Sub(t.pauseTime))
	t.pauseTime = time.Time{}
	t.state = Running
	t.transition(EventResumed)
	return true
}

// Stop discards the current window. It reports false if already stopped.
func (t *Timer) Stop() bool {
	t.mustBeActive()
	if t.state == Stopped {
		return false
	}

	t.state = Stopped
	t.startTime = time.Time{}
	t.endTime = time.Time{}
	t.pauseTime = time.Time{}
	t.transition(EventStopped)
	return true
}

// Restart stops the timer and starts it again from its current start.
// Only duration starts can be restarted.
func (t *Timer) Restart() bool {
	t.mustBeActive()
	if !t.SupportsRestart() {
		return false
	}

	s := t.timerStart
	t.Stop()
	return t.Start(s)
}

// Tick refreshes the derived values and expires a running timer whose end
// time has passed. Call it periodically.
func (t *Timer) Tick() {
	t.mustBeActive()
	if t.state == Running && !t.clock.Now().Before(t.endTime) {
		t.expire()
		return
	}
	t.transition(EventTick)
}

// Close ends the timer's lifecycle. Any later call that changes the timer
// panics with ErrClosed.
func (t *Timer) Close() {
	t.closed = true
	t.subs = nil
}

// String summarises the timer for a single line of output.
func (t *Timer) String() string {
	now := t.clock.Now()

	var b strings.Builder
	switch t.state {
	case Stopped:
		b.WriteString("Stopped")
	case Running, Paused:
		if t.state == Paused {
			b.WriteString("Paused, ")
		}
		if t.options.ShowTimeElapsed() {
			elapsed, _ := t.timeElapsedAt(now)
			b.WriteString(FormatNatural(elapsed) + " elapsed")
		} else {
			left, _ := t.timeLeftAt(now)
			b.WriteString(FormatNatural(roundUp(left)) + " left")
		}
	case Expired:
		expired, _ := t.timeExpiredAt(now)
		b.WriteString("Expired " + FormatExpiredFor(expired))
	}

	if title := t.options.Title(); title != "" {
		b.WriteString(" - " + title)
	}
	if t.options.LoopTimer() && t.SupportsLooping() {
		b.WriteString(" (looped)")
	}
	return b.String()
}

func (t *Timer) startWindow(start, end time.Time) {
	t.state = Running
	t.startTime = start
	t.endTime = end
	t.pauseTime = time.Time{}
	t.transition(EventStarted)
}

func (t *Timer) expire() {
	t.state = Expired
	t.transition(EventExpired)

	// An observer may have stopped or restarted the timer in response.
	if t.options.LoopTimer() && t.SupportsLooping() && t.state == Expired {
		t.loop()
	}
}

// loop starts the window that contains the current instant, skipping every
// window that elapsed in full. The timer stays expired when no such window
// can be found within maxLoopIterations.
func (t *Timer) loop() {
	now := t.clock.Now()
	start := t.endTime

	end, ok := t.timerStart.EndTime(start)
	for i := 0; ok && !end.After(now) && end.After(start) && i < maxLoopIterations; i++ {
		start = end
		end, ok = t.timerStart.EndTime(start)
	}

	if ok && end.After(now) && end.After(start) {
		t.startWindow(start, end)
	}
}

func (t *Timer) transition(kind EventKind) {
	changed := t.refresh()
	t.publish(Event{Kind: kind, State: t.state, Changed: changed})
}

// refresh recomputes the derived values and returns the fields that changed
// since the previous refresh.
func (t *Timer) refresh() []string {
	if t.state == Stopped {
		t.timerStart = nil
	}
	t.derived = t.computeDerived(t.clock.Now())

	current := view{
		state:      t.state,
		startTime:  t.startTime,
		endTime:    t.endTime,
		pauseTime:  t.pauseTime,
		timerStart: t.timerStart,
		derived:    t.derived,
	}
	changed := t.last.diff(current)
	t.last = current
	return changed
}

func (t *Timer) mustBeActive() {
	if t.closed {
		panic(ErrClosed)
	}
}

// reference is the instant progress is measured at: the pause instant while
// paused, otherwise now.
func (t *Timer) reference(now time.Time) time.Time {
	if t.state == Paused {
		return t.pauseTime
	}
	return now
}

func (t *Timer) timeLeftAt(now time.Time) (time.Duration, bool) {
	switch t.state {
	case Stopped:
		return 0, false
	case Expired:
		return 0, true
	}
	return max(t.endTime.Sub(t.reference(now)), 0), true
}

func (t *Timer) timeElapsedAt(now time.Time) (time.Duration, bool) {
	if t.state == Stopped {
		return 0, false
	}
	return t.reference(now).Sub(t.startTime), true
}

func (t *Timer) timeExpiredAt(now time.Time) (time.Duration, bool) {
	if t.state != Expired {
		return 0, false
	}
	return now.Sub(t.endTime), true
}
