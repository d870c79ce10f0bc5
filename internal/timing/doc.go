// Package timing implements the countdown timer: its state machine, the
// ways a countdown can begin, the options that shape it and the formatting
// of remaining and elapsed time.
//
// # Lifecycle
//
// A Timer is Stopped until Start succeeds. A running timer can be paused
// and resumed when it was started from a duration. The timer does not run
// on its own: the owner calls Tick periodically, and Tick moves a Running
// timer to Expired once its end time has passed. A looping timer started
// from a duration immediately begins its next window on expiry, skipping
// any windows that elapsed entirely while nobody was ticking.
//
// # Concurrency
//
// A Timer is not safe for concurrent use. Drive each one from a single
// goroutine. Options values are immutable and may be shared freely.
package timing
