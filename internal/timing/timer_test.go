package timing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hg-go/internal/testutil"
	"hg-go/internal/timing"
)

func newTimer(t *testing.T, configure func(b *timing.OptionsBuilder)) (*timing.Timer, *testutil.StubClock) {
	t.Helper()
	b := timing.NewOptionsBuilder()
	if configure != nil {
		configure(b)
	}
	clock := testutil.FixedClock()
	return timing.NewTimer(b.Freeze(), clock), clock
}

func looping(b *timing.OptionsBuilder) {
	_ = b.SetLoopTimer(true)
}

func span(d time.Duration) timing.Start {
	return timing.TimeSpanStart{Duration: d}
}

// recordEvents collects every event the timer publishes.
func recordEvents(tm *timing.Timer) *[]timing.Event {
	var events []timing.Event
	tm.Subscribe(func(ev timing.Event) { events = append(events, ev) })
	return &events
}

func kinds(events []timing.Event) []timing.EventKind {
	out := make([]timing.EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func TestNewTimer_IsStopped(t *testing.T) {
	tm, _ := newTimer(t, nil)

	assert.Equal(t, timing.Stopped, tm.State())
	assert.Nil(t, tm.TimerStart())
	_, ok := tm.StartTime()
	assert.False(t, ok)
	_, ok = tm.TimeLeft()
	assert.False(t, ok)

	d := tm.Derived()
	assert.Nil(t, d.PercentageLeft)
	assert.Nil(t, d.PercentageElapsed)
	assert.Equal(t, timing.TextStopped, d.TimeLeft)
	assert.Equal(t, timing.TextStopped, d.TimeLeftHours)
	assert.Equal(t, timing.TextStopped, d.TimeElapsed)
	assert.Equal(t, timing.TextNotExpired, d.TimeExpired)

	assert.True(t, tm.SupportsPause())
	assert.True(t, tm.SupportsLooping())
	assert.False(t, tm.SupportsRestart())
}

func TestTimer_StartSetsWindow(t *testing.T) {
	for _, d := range []time.Duration{0, time.Nanosecond, time.Second, 90 * time.Minute, 3 * 7 * day} {
		t.Run(d.String(), func(t *testing.T) {
			tm, clock := newTimer(t, nil)
			now := clock.Now()

			require.True(t, tm.Start(span(d)))

			assert.Equal(t, timing.Running, tm.State())
			total, ok := tm.TotalTime()
			require.True(t, ok)
			assert.Equal(t, d, total)

			start, _ := tm.StartTime()
			end, _ := tm.EndTime()
			assert.WithinDuration(t, now, start, 0)
			assert.WithinDuration(t, now.Add(d), end, 0)
			assert.Equal(t, span(d), tm.TimerStart())
		})
	}
}

func TestTimer_StartFailureLeavesTimerUntouched(t *testing.T) {
	tm, clock := newTimer(t, nil)
	events := recordEvents(tm)

	past := timing.DateTimeStart{At: clock.Now().Add(-time.Hour)}
	assert.False(t, tm.Start(past))
	assert.False(t, tm.Start(nil))
	assert.False(t, tm.Start(span(-time.Second)))

	assert.Equal(t, timing.Stopped, tm.State())
	assert.Nil(t, tm.TimerStart())
	assert.Empty(t, *events)
}

func TestTimer_Percentages(t *testing.T) {
	tm, clock := newTimer(t, nil)
	require.True(t, tm.Start(span(100*time.Second)))

	clock.Advance(25 * time.Second)
	tm.Tick()

	d := tm.Derived()
	require.NotNil(t, d.PercentageLeft)
	require.NotNil(t, d.PercentageElapsed)
	assert.InDelta(t, 25.0, *d.PercentageLeft, 1e-9)
	assert.InDelta(t, 75.0, *d.PercentageElapsed, 1e-9)
	assert.InDelta(t, 100.0, *d.PercentageLeft+*d.PercentageElapsed, 1e-9)
	assert.Equal(t, "1 minute, 15 seconds", d.TimeLeft)
	assert.Equal(t, "25 seconds", d.TimeElapsed)
	assert.Equal(t, timing.TextNotExpired, d.TimeExpired)
}

func TestTimer_ZeroLengthWindow(t *testing.T) {
	tm, _ := newTimer(t, nil)
	require.True(t, tm.Start(span(0)))

	d := tm.Derived()
	require.NotNil(t, d.PercentageLeft)
	assert.Equal(t, 0.0, *d.PercentageLeft)
	assert.Equal(t, 100.0, *d.PercentageElapsed)
	assert.Equal(t, "0 seconds", d.TimeLeft)

	tm.Tick()
	assert.Equal(t, timing.Expired, tm.State())
}

func TestTimer_ExpiresOnTick(t *testing.T) {
	tm, clock := newTimer(t, nil)
	require.True(t, tm.Start(span(10*time.Second)))
	events := recordEvents(tm)

	clock.Advance(9 * time.Second)
	tm.Tick()
	assert.Equal(t, timing.Running, tm.State())

	clock.Advance(6 * time.Second)
	tm.Tick()
	require.Equal(t, timing.Expired, tm.State())
	assert.Equal(t, []timing.EventKind{timing.EventTick, timing.EventExpired}, kinds(*events))

	d := tm.Derived()
	assert.Equal(t, 100.0, *d.PercentageLeft)
	assert.Equal(t, 0.0, *d.PercentageElapsed)
	assert.Equal(t, timing.TextExpired, d.TimeLeft)
	assert.Equal(t, timing.TextExpired, d.TimeLeftSeconds)
	assert.Equal(t, timing.TextExpired, d.TimeElapsed)
	assert.Equal(t, "5 seconds ago", d.TimeExpired)

	left, ok := tm.TimeLeft()
	require.True(t, ok)
	assert.Zero(t, left)
	expired, _ := tm.TimeExpired()
	assert.Equal(t, 5*time.Second, expired)
}

func TestTimer_ExpiresExactlyAtEndTime(t *testing.T) {
	tm, clock := newTimer(t, nil)
	require.True(t, tm.Start(span(10*time.Second)))

	clock.Advance(10 * time.Second)
	tm.Tick()
	assert.Equal(t, timing.Expired, tm.State())
}

func TestTimer_PauseResumePreservesTimeLeft(t *testing.T) {
	tm, clock := newTimer(t, nil)
	start := clock.Now()
	require.True(t, tm.Start(span(60*time.Second)))

	clock.Advance(10 * time.Second)
	before, _ := tm.TimeLeft()
	require.True(t, tm.Pause())
	assert.Equal(t, timing.Paused, tm.State())
	pausedAt, ok := tm.PauseTime()
	require.True(t, ok)
	assert.WithinDuration(t, clock.Now(), pausedAt, 0)

	clock.Advance(30 * time.Second)
	tm.Tick()
	during, _ := tm.TimeLeft()
	assert.Equal(t, before, during)
	assert.Equal(t, timing.Paused, tm.State())

	require.True(t, tm.Resume())
	after, _ := tm.TimeLeft()
	assert.Equal(t, before, after)
	assert.Equal(t, timing.Running, tm.State())

	end, _ := tm.EndTime()
	assert.WithinDuration(t, start.Add(90*time.Second), end, 0)
	_, ok = tm.PauseTime()
	assert.False(t, ok)
}

func TestTimer_PauseRules(t *testing.T) {
	t.Run("not running", func(t *testing.T) {
		tm, _ := newTimer(t, nil)
		assert.False(t, tm.Pause())
		assert.False(t, tm.Resume())
	})

	t.Run("wall clock deadline cannot pause", func(t *testing.T) {
		tm, clock := newTimer(t, nil)
		require.True(t, tm.Start(timing.DateTimeStart{At: clock.Now().Add(time.Hour)}))

		assert.False(t, tm.SupportsPause())
		assert.False(t, tm.Pause())
		assert.Equal(t, timing.Running, tm.State())
	})

	t.Run("already paused", func(t *testing.T) {
		tm, _ := newTimer(t, nil)
		require.True(t, tm.Start(span(time.Minute)))
		require.True(t, tm.Pause())
		assert.False(t, tm.Pause())
	})

	t.Run("past the end time expires instead", func(t *testing.T) {
		tm, clock := newTimer(t, nil)
		require.True(t, tm.Start(span(time.Minute)))
		clock.Advance(2 * time.Minute)

		assert.False(t, tm.Pause())
		assert.Equal(t, timing.Expired, tm.State())
	})
}

func TestTimer_StopClearsWindow(t *testing.T) {
	setups := map[string]func(tm *timing.Timer, clock *testutil.StubClock){
		"running": func(tm *timing.Timer, _ *testutil.StubClock) {},
		"paused": func(tm *timing.Timer, _ *testutil.StubClock) {
			require.True(t, tm.Pause())
		},
		"expired": func(tm *timing.Timer, clock *testutil.StubClock) {
			clock.Advance(time.Hour)
			tm.Tick()
			require.Equal(t, timing.Expired, tm.State())
		},
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			tm, clock := newTimer(t, nil)
			require.True(t, tm.Start(span(time.Minute)))
			setup(tm, clock)

			require.True(t, tm.Stop())

			assert.Equal(t, timing.Stopped, tm.State())
			_, ok := tm.StartTime()
			assert.False(t, ok)
			_, ok = tm.EndTime()
			assert.False(t, ok)
			_, ok = tm.PauseTime()
			assert.False(t, ok)
			assert.Nil(t, tm.TimerStart())
			assert.False(t, tm.SupportsRestart())
			assert.True(t, tm.SupportsPause())
			assert.Equal(t, timing.TextStopped, tm.Derived().TimeLeft)
			assert.Nil(t, tm.Derived().PercentageLeft)

			assert.False(t, tm.Stop(), "stopping twice")
		})
	}
}

func TestTimer_Restart(t *testing.T) {
	t.Run("running duration timer", func(t *testing.T) {
		tm, clock := newTimer(t, nil)
		require.True(t, tm.Start(span(10*time.Second)))
		events := recordEvents(tm)

		clock.Advance(4 * time.Second)
		require.True(t, tm.Restart())

		start, _ := tm.StartTime()
		end, _ := tm.EndTime()
		assert.WithinDuration(t, clock.Now(), start, 0)
		assert.WithinDuration(t, clock.Now().Add(10*time.Second), end, 0)
		assert.Equal(t, []timing.EventKind{timing.EventStopped, timing.EventStarted}, kinds(*events))
	})

	t.Run("expired duration timer", func(t *testing.T) {
		tm, clock := newTimer(t, nil)
		require.True(t, tm.Start(span(10*time.Second)))
		clock.Advance(time.Minute)
		tm.Tick()

		require.True(t, tm.Restart())
		assert.Equal(t, timing.Running, tm.State())
	})

	t.Run("wall clock deadline", func(t *testing.T) {
		tm, clock := newTimer(t, nil)
		require.True(t, tm.Start(timing.DateTimeStart{At: clock.Now().Add(time.Hour)}))

		assert.False(t, tm.SupportsRestart())
		assert.False(t, tm.Restart())
		assert.Equal(t, timing.Running, tm.State())
	})

	t.Run("stopped", func(t *testing.T) {
		tm, _ := newTimer(t, nil)
		assert.False(t, tm.Restart())
	})
}

func TestTimer_LoopCatchesUpToCurrentWindow(t *testing.T) {
	tm, clock := newTimer(t, looping)
	t0 := clock.Now()
	require.True(t, tm.Start(span(10*time.Second)))
	events := recordEvents(tm)

	clock.Advance(25 * time.Second)
	tm.Tick()

	require.Equal(t, timing.Running, tm.State())
	start, _ := tm.StartTime()
	end, _ := tm.EndTime()
	assert.WithinDuration(t, t0.Add(20*time.Second), start, 0)
	assert.WithinDuration(t, t0.Add(30*time.Second), end, 0)
	assert.Equal(t, []timing.EventKind{timing.EventExpired, timing.EventStarted}, kinds(*events))

	left, _ := tm.TimeLeft()
	assert.Equal(t, 5*time.Second, left)
}

func TestTimer_LoopTerminates(t *testing.T) {
	t.Run("non-advancing start", func(t *testing.T) {
		tm, clock := newTimer(t, looping)
		require.True(t, tm.Start(span(0)))

		clock.Advance(time.Second)
		tm.Tick()
		assert.Equal(t, timing.Expired, tm.State())
	})

	t.Run("iteration ceiling", func(t *testing.T) {
		tm, clock := newTimer(t, looping)
		require.True(t, tm.Start(span(time.Nanosecond)))

		clock.Advance(time.Hour)
		tm.Tick()
		assert.Equal(t, timing.Expired, tm.State())

		end, _ := tm.EndTime()
		assert.WithinDuration(t, clock.Now().Add(-time.Hour).Add(time.Nanosecond), end, 0)
	})
}

func TestTimer_NoLoop(t *testing.T) {
	t.Run("option off", func(t *testing.T) {
		tm, clock := newTimer(t, nil)
		require.True(t, tm.Start(span(10*time.Second)))
		clock.Advance(25 * time.Second)
		tm.Tick()
		assert.Equal(t, timing.Expired, tm.State())
	})

	t.Run("wall clock deadline", func(t *testing.T) {
		tm, clock := newTimer(t, looping)
		require.True(t, tm.Start(timing.DateTimeStart{At: clock.Now().Add(10 * time.Second)}))
		assert.False(t, tm.SupportsLooping())

		clock.Advance(25 * time.Second)
		tm.Tick()
		assert.Equal(t, timing.Expired, tm.State())
	})

	t.Run("stopped by expiry observer", func(t *testing.T) {
		tm, clock := newTimer(t, looping)
		require.True(t, tm.Start(span(10*time.Second)))
		tm.Subscribe(func(ev timing.Event) {
			if ev.Kind == timing.EventExpired {
				tm.Stop()
			}
		})

		clock.Advance(25 * time.Second)
		tm.Tick()
		assert.Equal(t, timing.Stopped, tm.State())
	})
}

func TestTimer_EventsCarryFreshDerivedValues(t *testing.T) {
	tm, clock := newTimer(t, nil)

	var seen []string
	tm.Subscribe(func(ev timing.Event) {
		assert.Equal(t, ev.State, tm.State())
		seen = append(seen, tm.Derived().TimeLeft)
	})

	require.True(t, tm.Start(span(10*time.Second)))
	clock.Advance(11 * time.Second)
	tm.Tick()

	assert.Equal(t, []string{"10 seconds", timing.TextExpired}, seen)
}

func TestTimer_EventChangedFields(t *testing.T) {
	tm, clock := newTimer(t, nil)
	events := recordEvents(tm)

	require.True(t, tm.Start(span(10*time.Second)))
	started := (*events)[0]
	assert.Equal(t, timing.EventStarted, started.Kind)
	for _, field := range []string{timing.FieldState, timing.FieldStartTime, timing.FieldEndTime, timing.FieldTimerStart, timing.FieldTimeLeft, timing.FieldPercentageLeft} {
		assert.True(t, started.Has(field), "started event should report %s", field)
	}
	assert.False(t, started.Has(timing.FieldPauseTime))

	clock.Advance(500 * time.Millisecond)
	tm.Tick()
	tick := (*events)[1]
	assert.True(t, tick.Has(timing.FieldTimeLeft))
	assert.False(t, tick.Has(timing.FieldState))

	tm.Tick()
	assert.Empty(t, (*events)[2].Changed)
}

func TestTimer_Unsubscribe(t *testing.T) {
	tm, _ := newTimer(t, nil)

	calls := 0
	unsubscribe := tm.Subscribe(func(timing.Event) { calls++ })
	tm.Tick()
	unsubscribe()
	tm.Tick()

	assert.Equal(t, 1, calls)
}

func TestTimer_SingleUnitStrings(t *testing.T) {
	tm, _ := newTimer(t, nil)
	require.True(t, tm.Start(span(2*day+3*time.Hour)))

	d := tm.Derived()
	assert.Equal(t, "2 days, 3 hours", d.TimeLeft)
	assert.Equal(t, "0 week", d.TimeLeftWeeks)
	assert.Equal(t, "2 days", d.TimeLeftDays)
	assert.Equal(t, "51 hours", d.TimeLeftHours)
	assert.Equal(t, "3060 minutes", d.TimeLeftMinutes)
	assert.Equal(t, "183600 seconds", d.TimeLeftSeconds)
}

func TestTimer_String(t *testing.T) {
	tm, clock := newTimer(t, func(b *timing.OptionsBuilder) {
		_ = b.SetTitle("Tea")
		_ = b.SetLoopTimer(true)
	})
	assert.Equal(t, "Stopped - Tea (looped)", tm.String())

	require.True(t, tm.Start(span(90*time.Second)))
	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, "1 minute 30 seconds left - Tea (looped)", tm.String())

	require.True(t, tm.Pause())
	assert.Equal(t, "Paused, 1 minute 30 seconds left - Tea (looped)", tm.String())

	plain, clock := newTimer(t, func(b *timing.OptionsBuilder) { _ = b.SetShowTimeElapsed(true) })
	require.True(t, plain.Start(span(time.Minute)))
	clock.Advance(30 * time.Second)
	assert.Equal(t, "30 seconds elapsed", plain.String())

	clock.Advance(35 * time.Second)
	plain.Tick()
	assert.Equal(t, "Expired 5 seconds ago", plain.String())
}

func TestTimer_ClosedTimerPanics(t *testing.T) {
	tm, _ := newTimer(t, nil)
	tm.Close()

	ops := map[string]func(){
		"start":   func() { tm.Start(span(time.Minute)) },
		"pause":   func() { tm.Pause() },
		"resume":  func() { tm.Resume() },
		"stop":    func() { tm.Stop() },
		"restart": func() { tm.Restart() },
		"tick":    func() { tm.Tick() },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			assert.PanicsWithError(t, timing.ErrClosed.Error(), op)
		})
	}
}
