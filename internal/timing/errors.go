package timing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOperation marks misuse of a timer or its options. It is the
	// class shared by ErrFrozen, ErrNotFrozen and ErrClosed.
	ErrInvalidOperation = errors.New("invalid operation")

	ErrFrozen    = fmt.Errorf("options are frozen: %w", ErrInvalidOperation)
	ErrNotFrozen = fmt.Errorf("options are not frozen: %w", ErrInvalidOperation)
	ErrClosed    = fmt.Errorf("timer is closed: %w", ErrInvalidOperation)

	// ErrInvalidStart is returned when input cannot be parsed into a Start.
	ErrInvalidStart = errors.New("invalid timer start")

	// ErrInvalidRecord is returned when a persisted record violates the
	// timer's state invariants.
	ErrInvalidRecord = errors.New("invalid timer record")
)
