package hg

import (
	"context"
	"fmt"
	"time"

	"hg-go/internal/timing"
)

// Watch ticks the timers with the given IDs, or every timer when ids is
// empty, once per interval. render, if non-nil, is called with the timers
// before the first tick and after every round of ticks.
//
// Watch returns when ctx is done or when no watched timer can change any
// more: each one is stopped, or expired with CloseWhenExpired set.
// Expiring timers play their sound.
func (s *HGService) Watch(ctx context.Context, interval time.Duration, ids []string, render func([]*Entry)) error {
	entries, err := s.watchable(ids)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("%w: nothing to watch", ErrNotFound)
	}

	for _, e := range entries {
		unsubscribe := s.alert(e)
		defer unsubscribe()
	}

	for _, e := range entries {
		e.Timer.Tick()
	}
	if err := s.saveAll(entries); err != nil {
		return err
	}
	if render != nil {
		render(entries)
	}

	s.logger.Debug("watching timers", "count", len(entries), "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for !watchDone(entries) {
		select {
		case <-ctx.Done():
			return s.saveAll(entries)
		case <-ticker.C:
		}

		for _, e := range entries {
			e.Timer.Tick()
		}
		if err := s.saveAll(entries); err != nil {
			return err
		}
		if render != nil {
			render(entries)
		}
	}
	return nil
}

func (s *HGService) watchable(ids []string) ([]*Entry, error) {
	if len(ids) == 0 {
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
			entries = append(entries, e)
		}
		return entries, nil
	}

	entries := make([]*Entry, 0, len(ids))
	for _, id := range ids {
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
		entries = append(entries, e)
	}
	return entries, nil
}

// alert plays e's sound when it expires, and on every tick while it stays
// expired if LoopSound is set.
func (s *HGService) alert(e *Entry) (unsubscribe func()) {
	return e.Timer.Subscribe(func(ev timing.Event) {
		opts := e.Timer.Options()
		if opts.Sound() == "" {
			return
		}

		switch {
		case ev.Kind == timing.EventExpired:
		case ev.Kind == timing.EventTick && ev.State == timing.Expired && opts.LoopSound():
		default:
			return
		}

		if err := s.sound.Play(opts.Sound()); err != nil {
			s.logger.Warn("playing sound failed", "id", e.ID, "sound", opts.Sound(), "error", err)
		}
	})
}

func (s *HGService) saveAll(entries []*Entry) error {
	for _, e := range entries {
		if err := s.save(e); err != nil {
			return err
		}
	}
	return nil
}

func watchDone(entries []*Entry) bool {
	for _, e := range entries {
		switch e.Timer.State() {
		case timing.Stopped:
		case timing.Expired:
			if !e.Timer.Options().CloseWhenExpired() {
				return false
			}
		default:
			return false
		}
	}
	return true
}
