package scheduler_test

import (
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"webtally/internal/platform/scheduler"
)

func TestManualFiresInDueOrderAndRearmsIntervals(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	m := scheduler.NewManual(start)
	fired := []string{}
	m.Every("idle", 5*time.Second, func() { fired = append(fired, "idle@"+m.Now().Format("15:04:05")) })
	m.Every("emit", 10*time.Second, func() { fired = append(fired, "emit@"+m.Now().Format("15:04:05")) })
	m.At("once", start.Add(7*time.Second), func() { fired = append(fired, "once@"+m.Now().Format("15:04:05")) })

	m.Advance(10 * time.Second)

	want := []string{"idle@09:00:05", "once@09:00:07", "idle@09:00:10", "emit@09:00:10"}
	if !reflect.DeepEqual(fired, want) {
		t.Fatalf("unexpected firing order:\n got %v\nwant %v", fired, want)
	}
	if !m.Now().Equal(start.Add(10 * time.Second)) {
		t.Fatalf("clock not advanced: %s", m.Now())
	}
	if got := m.Pending(); !reflect.DeepEqual(got, []string{"emit", "idle"}) {
		t.Fatalf("one-shot timer should be gone: %v", got)
	}
}

func TestManualCancelAndRearmFromCallback(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC)
	m := scheduler.NewManual(start)
	runs := 0
	var arm func()
	arm = func() {
		m.At("daily", m.Now().Add(24*time.Hour), func() {
			runs++
			arm()
		})
	}
	arm()
	m.Advance(72 * time.Hour)
	if runs != 3 {
		t.Fatalf("expected 3 runs, got %d", runs)
	}

	m.Cancel("daily")
	m.Advance(48 * time.Hour)
	if runs != 3 {
		t.Fatalf("cancelled timer fired: %d", runs)
	}
}

func TestTimersAtFiresAndStopSilences(t *testing.T) {
	t.Parallel()
	timers := scheduler.NewTimers()
	defer timers.Stop()

	fired := make(chan struct{}, 1)
	timers.At("once", time.Now().Add(10*time.Millisecond), func() { fired <- struct{}{} })
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer did not fire")
	}

	var ticks atomic.Int32
	timers.Every("tick", 5*time.Millisecond, func() { ticks.Add(1) })
	time.Sleep(40 * time.Millisecond)
	timers.Stop()
	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	if ticks.Load() > after+1 {
		t.Fatalf("ticker kept running after stop")
	}
	if after == 0 {
		t.Fatalf("ticker never fired")
	}
}
