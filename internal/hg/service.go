package hg

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hg-go/internal/model"
	"hg-go/internal/timing"
)

var (
	ErrNotFound     = errors.New("timer not found")
	ErrUnsupported  = errors.New("operation not supported by this timer")
	ErrInvalidState = errors.New("timer is in the wrong state")
	ErrCannotStart  = errors.New("timer start has no valid end time")
	ErrAmbiguousID  = errors.New("timer id prefix matches more than one timer")
)

// Entry is a persisted timer loaded into memory.
type Entry struct {
	ID        string
	CreatedAt time.Time
	Timer     *timing.Timer

	// pending holds transitions not yet written to the store.
	pending []*model.TimerEvent
}

// HGService is the orchestration layer that coordinates the store, clock,
// sound and encryption to perform the operations needed by the CLI.
//
// Every operation loads timers from the store and ticks them before acting,
// so expiry and looping that happened while no process was running are
// caught up first.
type HGService struct {
	store     Store
	sound     Sound
	encryptor Encryptor
	logger    Logger
	clock     timing.Clock
	idgen     IDGenerator
}

// NewHGService creates a new HGService with the provided dependencies.
// A nil sound, logger, clock or idgen falls back to a silent, discarding,
// real-time or UUID implementation respectively.
func NewHGService(store Store, sound Sound, encryptor Encryptor, logger Logger, clock timing.Clock, idgen IDGenerator) *HGService {
	if sound == nil {
		sound = NopSound{}
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = timing.RealClock{}
	}
	if idgen == nil {
		idgen = UUIDGenerator{}
	}
	return &HGService{
		store:     store,
		sound:     sound,
		encryptor: encryptor,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
	}
}

// StartTimer parses input (see timing.ParseStart) and starts a new timer.
func (s *HGService) StartTimer(input string, opts timing.Options) (*Entry, error) {
	start, err := timing.ParseStart(input, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("parsing start: %w", err)
	}
	return s.StartTimerFrom(start, opts)
}

// StartTimerFrom starts a new timer from start.
func (s *HGService) StartTimerFrom(start timing.Start, opts timing.Options) (*Entry, error) {
	e := &Entry{
		ID:        s.idgen.New(),
		CreatedAt: s.clock.Now().Round(0),
		Timer:     timing.NewTimer(opts, s.clock),
	}
	s.track(e)

	if !e.Timer.Start(start) {
		return nil, fmt.Errorf("%w: %s", ErrCannotStart, start)
	}

	if err := s.save(e); err != nil {
		return nil, err
	}

	s.logger.Info("timer started", "id", e.ID, "start", start.String(), "title", opts.Title())
	return e, nil
}

// Get loads a single timer.
func (s *HGService) Get(id string) (*Entry, error) {
	e, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if err := s.save(e); err != nil {
		return nil, err
	}
	return e, nil
}

// List loads all timers, oldest first.
func (s *HGService) List() ([]*Entry, error) {
	timers, err := s.store.ListTimers()
	if err != nil {
		return nil, fmt.Errorf("listing timers: %w", err)
	}

	entries := make([]*Entry, 0, len(timers))
	for _, m := range timers {
		e, err := s.open(m)
		if err != nil {
			return nil, err
		}
		e.Timer.Tick()
		if err := s.save(e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Pause pauses a running duration timer.
func (s *HGService) Pause(id string) (*Entry, error) {
	return s.modify(id, "paused", func(tm *timing.Timer) error {
		if !tm.SupportsPause() {
			return fmt.Errorf("%w: %s timers cannot be paused", ErrUnsupported, tm.TimerStart().Kind())
		}
		if !tm.Pause() {
			return fmt.Errorf("%w: cannot pause a %s timer", ErrInvalidState, tm.State())
		}
		return nil
	})
}

// Resume resumes a paused timer.
func (s *HGService) Resume(id string) (*Entry, error) {
	return s.modify(id, "resumed", func(tm *timing.Timer) error {
		if !tm.Resume() {
			return fmt.Errorf("%w: cannot resume a %s timer", ErrInvalidState, tm.State())
		}
		return nil
	})
}

// Stop stops a timer. The timer stays in the store.
func (s *HGService) Stop(id string) (*Entry, error) {
	return s.modify(id, "stopped", func(tm *timing.Timer) error {
		if !tm.Stop() {
			return fmt.Errorf("%w: timer is already stopped", ErrInvalidState)
		}
		return nil
	})
}

// Restart starts a duration timer over from the beginning.
func (s *HGService) Restart(id string) (*Entry, error) {
	return s.modify(id, "restarted", func(tm *timing.Timer) error {
		if tm.State() == timing.Stopped {
			return fmt.Errorf("%w: cannot restart a stopped timer", ErrInvalidState)
		}
		if !tm.SupportsRestart() {
			return fmt.Errorf("%w: %s timers cannot be restarted", ErrUnsupported, tm.TimerStart().Kind())
		}
		if !tm.Restart() {
			return ErrCannotStart
		}
		return nil
	})
}

// Remove deletes a timer and its history.
func (s *HGService) Remove(id string) error {
	m, err := s.store.FindTimer(id)
	if err != nil {
		return fmt.Errorf("finding timer: %w", err)
	}
	if m == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := s.store.DeleteTimer(id); err != nil {
		return fmt.Errorf("deleting timer: %w", err)
	}

	s.logger.Info("timer removed", "id", id)
	return nil
}

// modify loads a timer, applies fn and saves the result. Transitions caused
// by catching up are saved even when fn fails.
func (s *HGService) modify(id, action string, fn func(tm *timing.Timer) error) (*Entry, error) {
	e, err := s.find(id)
	if err != nil {
		return nil, err
	}

	opErr := fn(e.Timer)

	if err := s.save(e); err != nil {
		return nil, err
	}
	if opErr != nil {
		return nil, opErr
	}

	s.logger.Info("timer "+action, "id", id, "state", e.Timer.State().String())
	return e, nil
}

// find loads and ticks a timer without saving it.
func (s *HGService) find(id string) (*Entry, error) {
	m, err := s.store.FindTimer(id)
	if err != nil {
		return nil, fmt.Errorf("finding timer: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	e, err := s.open(m)
	if err != nil {
		return nil, err
	}
	e.Timer.Tick()
	return e, nil
}

// open rebuilds the timer of a stored record and starts tracking its
// transitions. It does not tick, so callers can subscribe first.
func (s *HGService) open(m *model.Timer) (*Entry, error) {
	tm, err := timing.FromRecord(m.Record, s.clock)
	if err != nil {
		return nil, fmt.Errorf("loading timer %s: %w", m.ID, err)
	}

	e := &Entry{ID: m.ID, CreatedAt: m.CreatedAt, Timer: tm}
	s.track(e)
	return e, nil
}

// track queues a history event for every transition of e.
func (s *HGService) track(e *Entry) {
	e.Timer.Subscribe(func(ev timing.Event) {
		if ev.Kind == timing.EventTick {
			return
		}

		at := s.clock.Now()
		switch ev.Kind {
		case timing.EventStarted:
			at, _ = e.Timer.StartTime()
		case timing.EventExpired:
			at, _ = e.Timer.EndTime()
		}

		e.pending = append(e.pending, &model.TimerEvent{
			TimerID:    e.ID,
			Kind:       ev.Kind.String(),
			State:      ev.State.String(),
			OccurredAt: at.Round(0),
		})
		s.logger.Debug("timer transition", "id", e.ID, "event", ev.Kind.String())
	})
}

// save writes e and its pending events when anything changed.
func (s *HGService) save(e *Entry) error {
	if len(e.pending) == 0 {
		return nil
	}

	m := &model.Timer{
		ID:        e.ID,
		CreatedAt: e.CreatedAt,
		UpdatedAt: s.clock.Now().Round(0),
		Record:    e.Timer.ToRecord(),
	}
	if err := s.store.SaveTimer(m); err != nil {
		return fmt.Errorf("saving timer %s: %w", e.ID, err)
	}

	for _, ev := range e.pending {
		if err := s.store.AppendEvent(ev); err != nil {
			return fmt.Errorf("recording %s event for timer %s: %w", ev.Kind, e.ID, err)
		}
	}
	e.pending = nil
	return nil
}

// Resolve expands a unique ID prefix to the full timer ID. An exact match
// wins over prefix matches.
func (s *HGService) Resolve(prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrNotFound)
	}

	m, err := s.store.FindTimer(prefix)
	if err != nil {
		return "", fmt.Errorf("finding timer: %w", err)
	}
	if m != nil {
		return m.ID, nil
	}

	timers, err := s.store.ListTimers()
	if err != nil {
		return "", fmt.Errorf("listing timers: %w", err)
	}

	var match string
	for _, t := range timers {
		if !strings.HasPrefix(t.ID, prefix) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("%w: %s", ErrAmbiguousID, prefix)
		}
		match = t.ID
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, prefix)
	}
	return match, nil
}
