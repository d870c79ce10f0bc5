package timing

import (
	"fmt"
	"strings"
	"time"
)

const (
	day  = 24 * time.Hour
	week = 7 * day
)

// Fixed texts that replace formatted durations in particular states.
const (
	TextStopped    = "stopped"
	TextExpired    = "expired"
	TextNotExpired = "not expired"
)

// components splits d into whole days and the hour, minute and second
// remainders. Division truncates towards zero, so every component carries
// the sign of d.
func components(d time.Duration) (days, hours, minutes, seconds int64) {
	days = int64(d / day)
	hours = int64(d/time.Hour) % 24
	minutes = int64(d/time.Minute) % 60
	seconds = int64(d/time.Second) % 60
	return days, hours, minutes, seconds
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// plural renders n with unit, singular only when n is exactly one.
func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatTimeLeft renders d as a comma separated list of its non-zero
// components, largest first: "1 week, 1 day", "1 minute, 30 seconds".
// Weeks are only broken out once d spans more than seven days. A duration
// with no whole second renders as "0 seconds".
func FormatTimeLeft(d time.Duration) string {
	days, hours, minutes, seconds := components(d)

	var parts []string
	if abs(days) > 7 {
		parts = append(parts, plural(days/7, "week"))
	}
	if abs(days)%7 > 0 {
		parts = append(parts, plural(days%7, "day"))
	}
	if abs(hours) > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if abs(minutes) > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if abs(seconds) > 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	if len(parts) == 0 {
		return "0 seconds"
	}
	return strings.Join(parts, ", ")
}

// FormatWeeks renders the whole weeks in d, or "0 week" when d spans seven
// days or less.
func FormatWeeks(d time.Duration) string {
	days := int64(d / day)
	if abs(days) > 7 {
		return plural(days/7, "week")
	}
	return "0 week"
}

// FormatDays renders d collapsed into whole days.
func FormatDays(d time.Duration) string {
	days := int64(d / day)
	if abs(days) > 0 {
		return plural(days, "day")
	}
	return "0 day"
}

// FormatHours renders d collapsed into whole hours, including the hours
// contributed by days and weeks.
func FormatHours(d time.Duration) string {
	if hours := int64(d / time.Hour); d > 0 && hours > 0 {
		return plural(hours, "hour")
	}
	return "0 hour"
}

// FormatMinutes renders d collapsed into whole minutes.
func FormatMinutes(d time.Duration) string {
	if minutes := int64(d / time.Minute); d > 0 && minutes > 0 {
		return plural(minutes, "minute")
	}
	return "0 minute"
}

// FormatSeconds renders d collapsed into whole seconds. A single remaining
// second renders as "0 second", matching the long-standing display.
func FormatSeconds(d time.Duration) string {
	if seconds := int64(d / time.Second); d > 0 && seconds > 1 {
		return plural(seconds, "second")
	}
	return "0 second"
}

// FormatNatural renders d as space separated days, hours, minutes and
// seconds, e.g. "1 hour 5 seconds". Negative durations get a leading "-".
func FormatNatural(d time.Duration) string {
	if d < 0 {
		return "-" + FormatNatural(-d)
	}

	days, hours, minutes, seconds := components(d)

	var parts []string
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	if len(parts) == 0 {
		return "0 seconds"
	}
	return strings.Join(parts, " ")
}

// FormatExpiredFor renders how long ago a timer expired.
func FormatExpiredFor(d time.Duration) string {
	return FormatNatural(d) + " ago"
}

// roundUp rounds d up to the next whole second so a countdown never shows
// zero while time remains.
func roundUp(d time.Duration) time.Duration {
	if r := d % time.Second; r > 0 {
		return d - r + time.Second
	}
	return d
}

// percent returns 100 * part / total computed on nanosecond counts.
func percent(part, total time.Duration) float64 {
	return 100.0 * float64(part) / float64(total)
}
