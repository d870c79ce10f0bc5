package timing

import "time"

// Derived holds the display values computed from a timer's raw state. It is
// recomputed on every transition and tick, never set independently.
type Derived struct {
	// PercentageLeft is the share of the window already consumed, pinned to
	// 100 once expired. Nil while stopped.
	PercentageLeft *float64

	// PercentageElapsed is the complement of PercentageLeft, pinned to 0
	// once expired. Nil while stopped.
	PercentageElapsed *float64

	TimeLeft    string
	TimeElapsed string
	TimeExpired string

	// The remaining time collapsed into a single unit each.
	TimeLeftWeeks   string
	TimeLeftDays    string
	TimeLeftHours   string
	TimeLeftMinutes string
	TimeLeftSeconds string
}

func (t *Timer) computeDerived(now time.Time) Derived {
	d := Derived{
		PercentageLeft:    t.percentageLeft(now),
		PercentageElapsed: t.percentageElapsed(now),
		TimeElapsed:       t.timeElapsedString(now),
		TimeExpired:       t.timeExpiredString(now),
	}

	switch t.state {
	case Stopped:
		d.setTimeLeft(TextStopped)
	case Expired:
		d.setTimeLeft(TextExpired)
	default:
		left, _ := t.timeLeftAt(now)
		d.TimeLeft = FormatTimeLeft(left)
		d.TimeLeftWeeks = FormatWeeks(left)
		d.TimeLeftDays = FormatDays(left)
		d.TimeLeftHours = FormatHours(left)
		d.TimeLeftMinutes = FormatMinutes(left)
		d.TimeLeftSeconds = FormatSeconds(left)
	}
	return d
}

func (d *Derived) setTimeLeft(text string) {
	d.TimeLeft = text
	d.TimeLeftWeeks = text
	d.TimeLeftDays = text
	d.TimeLeftHours = text
	d.TimeLeftMinutes = text
	d.TimeLeftSeconds = text
}

func (t *Timer) percentageLeft(now time.Time) *float64 {
	if !t.SupportsProgress() || t.state == Stopped {
		return nil
	}
	elapsed, ok := t.timeElapsedAt(now)
	if !ok {
		return nil
	}
	total, ok := t.TotalTime()
	if !ok {
		return nil
	}

	var p float64
	switch {
	case t.state == Expired:
		p = 100
	case total == 0:
		p = 0
	default:
		p = percent(elapsed, total)
	}
	return &p
}

func (t *Timer) percentageElapsed(now time.Time) *float64 {
	if !t.SupportsProgress() || !t.SupportsTimeElapsed() || t.state == Stopped {
		return nil
	}
	left, ok := t.timeLeftAt(now)
	if !ok {
		return nil
	}
	total, ok := t.TotalTime()
	if !ok {
		return nil
	}

	var p float64
	switch {
	case t.state == Expired:
		p = 0
	case total == 0:
		p = 100
	default:
		p = percent(left, total)
	}
	return &p
}

func (t *Timer) timeElapsedString(now time.Time) string {
	if !t.SupportsTimeElapsed() {
		return ""
	}
	switch t.state {
	case Stopped:
		return TextStopped
	case Expired:
		return TextExpired
	}
	elapsed, _ := t.timeElapsedAt(now)
	return FormatNatural(elapsed)
}

func (t *Timer) timeExpiredString(now time.Time) string {
	if t.state != Expired {
		return TextNotExpired
	}
	expired, _ := t.timeExpiredAt(now)
	return FormatExpiredFor(expired)
}

// view is the observable state of a timer, compared between events to
// find the changed fields.
type view struct {
	state      State
	startTime  time.Time
	endTime    time.Time
	pauseTime  time.Time
	timerStart Start
	derived    Derived
}

func (a view) diff(b view) []string {
	var changed []string
	add := func(differs bool, field string) {
		if differs {
			changed = append(changed, field)
		}
	}

	add(a.state != b.state, FieldState)
	add(!a.startTime.Equal(b.startTime), FieldStartTime)
	add(!a.endTime.Equal(b.endTime), FieldEndTime)
	add(!a.pauseTime.Equal(b.pauseTime), FieldPauseTime)
	add(a.timerStart != b.timerStart, FieldTimerStart)
	add(!samePercent(a.derived.PercentageLeft, b.derived.PercentageLeft), FieldPercentageLeft)
	add(!samePercent(a.derived.PercentageElapsed, b.derived.PercentageElapsed), FieldPercentageElapsed)
	add(a.derived.TimeLeft != b.derived.TimeLeft, FieldTimeLeft)
	add(a.derived.TimeElapsed != b.derived.TimeElapsed, FieldTimeElapsed)
	add(a.derived.TimeExpired != b.derived.TimeExpired, FieldTimeExpired)
	add(a.derived.TimeLeftWeeks != b.derived.TimeLeftWeeks, FieldTimeLeftWeeks)
	add(a.derived.TimeLeftDays != b.derived.TimeLeftDays, FieldTimeLeftDays)
	add(a.derived.TimeLeftHours != b.derived.TimeLeftHours, FieldTimeLeftHours)
	add(a.derived.TimeLeftMinutes != b.derived.TimeLeftMinutes, FieldTimeLeftMinutes)
	add(a.derived.TimeLeftSeconds != b.derived.TimeLeftSeconds, FieldTimeLeftSeconds)
	return changed
}

func samePercent(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
