package timing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StartKind identifies the variant of a Start.
type StartKind uint8

const (
	// KindTimeSpan counts down a fixed duration.
	KindTimeSpan StartKind = iota + 1

	// KindDateTime counts down to a wall-clock instant.
	KindDateTime
)

// String returns the kind name used in records.
func (k StartKind) String() string {
	switch k {
	case KindTimeSpan:
		return "timespan"
	case KindDateTime:
		return "datetime"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Start describes how a countdown begins. The set of implementations is
// closed: TimeSpanStart and DateTimeStart.
type Start interface {
	// EndTime computes the end of a countdown beginning at start. It
	// reports false when no valid end exists.
	EndTime(start time.Time) (time.Time, bool)

	// Kind reports which variant this is.
	Kind() StartKind

	String() string

	isStart()
}

// TimeSpanStart counts down a fixed duration.
type TimeSpanStart struct {
	Duration time.Duration
}

func (s TimeSpanStart) EndTime(start time.Time) (time.Time, bool) {
	if s.Duration < 0 {
		return time.Time{}, false
	}
	return start.Add(s.Duration), true
}

func (TimeSpanStart) Kind() StartKind { return KindTimeSpan }

func (s TimeSpanStart) String() string { return FormatNatural(s.Duration) }

func (TimeSpanStart) isStart() {}

// Recurrence controls how a DateTimeStart resolves its target.
type Recurrence uint8

const (
	// Once targets At itself.
	Once Recurrence = iota

	// Daily targets the next occurrence of At's time of day.
	Daily

	// Weekly targets the next occurrence of At's weekday and time of day.
	Weekly
)

func (r Recurrence) String() string {
	switch r {
	case Once:
		return "once"
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	default:
		return fmt.Sprintf("recurrence(%d)", uint8(r))
	}
}

// ParseRecurrence is the inverse of Recurrence.String.
func ParseRecurrence(s string) (Recurrence, error) {
	switch s {
	case "once", "":
		return Once, nil
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	default:
		return Once, fmt.Errorf("unknown recurrence: %q", s)
	}
}

// DateTimeStart counts down to a wall-clock instant. Times of day are
// interpreted in At's location.
type DateTimeStart struct {
	At     time.Time
	Repeat Recurrence
}

func (s DateTimeStart) EndTime(start time.Time) (time.Time, bool) {
	if s.At.IsZero() {
		return time.Time{}, false
	}

	if s.Repeat == Once {
		if s.At.Before(start) {
			return time.Time{}, false
		}
		return s.At, true
	}

	loc := s.At.Location()
	ref := start.In(loc)
	for i := 0; i <= 7; i++ {
		y, m, d := ref.AddDate(0, 0, i).Date()
		candidate := time.Date(y, m, d, s.At.Hour(), s.At.Minute(), s.At.Second(), s.At.Nanosecond(), loc)
		if candidate.Before(start) {
			continue
		}
		if s.Repeat == Weekly && candidate.Weekday() != s.At.Weekday() {
			continue
		}
		return candidate, true
	}
	return time.Time{}, false
}

func (DateTimeStart) Kind() StartKind { return KindDateTime }

func (s DateTimeStart) String() string {
	switch s.Repeat {
	case Daily:
		return "until " + s.At.Format("15:04")
	case Weekly:
		return "every " + s.At.Format("Monday 15:04")
	default:
		return "until " + s.At.Format("2006-01-02 15:04")
	}
}

func (DateTimeStart) isStart() {}

// ParseStart parses user input into a Start. Accepted forms:
//
//	25              25 minutes
//	1h30m, 1w2d3h   durations, with d and w for days and weeks
//	until 17:30     the next 17:30
//	until 2026-12-24 18:00
//	every friday 16:00
//
// Times are interpreted in now's location.
func ParseStart(input string, now time.Time) (Start, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidStart)
	}

	loc := now.Location()

	if rest, ok := strings.CutPrefix(s, "until "); ok {
		rest = strings.TrimSpace(rest)
		if at, err := time.ParseInLocation("2006-01-02 15:04", rest, loc); err == nil {
			return DateTimeStart{At: at, Repeat: Once}, nil
		}
		clock, err := time.ParseInLocation("15:04", rest, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a time or date", ErrInvalidStart, rest)
		}
		y, m, d := now.Date()
		return DateTimeStart{At: time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, loc), Repeat: Daily}, nil
	}

	if rest, ok := strings.CutPrefix(s, "every "); ok {
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: expected \"every <weekday> HH:MM\"", ErrInvalidStart)
		}
		wd, err := parseWeekday(fields[0])
		if err != nil {
			return nil, err
		}
		clock, err := time.ParseInLocation("15:04", fields[1], loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a time", ErrInvalidStart, fields[1])
		}
		y, m, d := now.Date()
		shift := (int(wd) - int(now.Weekday()) + 7) % 7
		at := time.Date(y, m, d+shift, clock.Hour(), clock.Minute(), 0, 0, loc)
		return DateTimeStart{At: at, Repeat: Weekly}, nil
	}

	d, err := parseDuration(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStart, err)
	}
	if d < 0 {
		return nil, fmt.Errorf("%w: negative duration %s", ErrInvalidStart, d)
	}
	return TimeSpanStart{Duration: d}, nil
}

// parseDuration extends time.ParseDuration with leading week and day
// components. A bare integer is a number of minutes.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Minute, nil
	}

	var total time.Duration
	rest := s
	for _, u := range []struct {
		suffix byte
		unit   time.Duration
	}{{'w', week}, {'d', day}} {
		i := strings.IndexByte(rest, u.suffix)
		if i < 0 {
			continue
		}
		n, err := strconv.Atoi(rest[:i])
		if err != nil {
			return 0, fmt.Errorf("invalid %c component %q", u.suffix, rest[:i])
		}
		total += time.Duration(n) * u.unit
		rest = rest[i+1:]
	}

	if rest != "" {
		d, err := time.ParseDuration(rest)
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if s == name || s == name[:3] {
			return wd, nil
		}
	}
	return time.Sunday, fmt.Errorf("%w: unknown weekday %q", ErrInvalidStart, s)
}
