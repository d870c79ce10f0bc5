package timing

import "fmt"

// State is the lifecycle state of a Timer.
type State uint8

const (
	// Stopped is the initial state. No countdown window exists.
	Stopped State = iota

	// Running counts down towards the end time.
	Running

	// Paused holds the remaining time until the timer is resumed.
	Paused

	// Expired means the end time has passed. The timer stays here until it
	// is stopped, restarted or loops.
	Expired
)

// String returns the lower-case state name used in records and output.
func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// ParseState is the inverse of State.String.
func ParseState(s string) (State, error) {
	switch s {
	case "stopped":
		return Stopped, nil
	case "running":
		return Running, nil
	case "paused":
		return Paused, nil
	case "expired":
		return Expired, nil
	default:
		return Stopped, fmt.Errorf("unknown timer state: %q", s)
	}
}
