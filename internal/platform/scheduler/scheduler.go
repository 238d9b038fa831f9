package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Scheduler arms named timers. Re-arming a name replaces the previous timer.
// Timers runs callbacks on their own goroutines, Manual runs them inside
// Advance.
type Scheduler interface {
	Every(name string, interval time.Duration, fn func())
	At(name string, when time.Time, fn func())
	Cancel(name string)
	Stop()
}

// Timers is the wall-clock Scheduler.
type Timers struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	tickers map[string]chan struct{}
	stopped bool
}

func NewTimers() *Timers {
	return &Timers{timers: map[string]*time.Timer{}, tickers: map[string]chan struct{}{}}
}

func (t *Timers) Every(name string, interval time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.cancelLocked(name)
	done := make(chan struct{})
	t.tickers[name] = done
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

func (t *Timers) At(name string, when time.Time, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.cancelLocked(name)
	delay := time.Until(when)
	if delay < 0 {
		delay = 0
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		t.mu.Lock()
		if t.timers[name] == timer {
			delete(t.timers, name)
		}
		t.mu.Unlock()
		fn()
	})
	t.timers[name] = timer
}

func (t *Timers) Cancel(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked(name)
}

func (t *Timers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name := range t.timers {
		t.cancelLocked(name)
	}
	for name := range t.tickers {
		t.cancelLocked(name)
	}
	t.stopped = true
}

func (t *Timers) cancelLocked(name string) {
	if timer, ok := t.timers[name]; ok {
		timer.Stop()
		delete(t.timers, name)
	}
	if done, ok := t.tickers[name]; ok {
		close(done)
		delete(t.tickers, name)
	}
}

// Manual is a deterministic Scheduler and Clock. Time only moves through
// Advance, which fires due callbacks synchronously in due-time order.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	entries map[string]*manualEntry
	seq     int
}

type manualEntry struct {
	name     string
	due      time.Time
	interval time.Duration
	fn       func()
	seq      int
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start, entries: map[string]*manualEntry{}}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Every(name string, interval time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.entries[name] = &manualEntry{name: name, due: m.now.Add(interval), interval: interval, fn: fn, seq: m.seq}
}

func (m *Manual) At(name string, when time.Time, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.entries[name] = &manualEntry{name: name, due: when, fn: fn, seq: m.seq}
}

func (m *Manual) Cancel(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, name)
}

func (m *Manual) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = map[string]*manualEntry{}
}

// Pending lists armed timer names, sorted.
func (m *Manual) Pending() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Due reports when the named timer fires next.
func (m *Manual) Due(name string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[name]
	if !ok {
		return time.Time{}, false
	}
	return entry.due, true
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()
	for {
		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.due
		fn := next.fn
		if next.interval > 0 {
			next.due = next.due.Add(next.interval)
		} else {
			delete(m.entries, next.name)
		}
		m.mu.Unlock()
		fn()
	}
}

func (m *Manual) nextDueLocked(limit time.Time) *manualEntry {
	var next *manualEntry
	for _, entry := range m.entries {
		if entry.due.After(limit) {
			continue
		}
		if next == nil || entry.due.Before(next.due) || (entry.due.Equal(next.due) && entry.seq < next.seq) {
			next = entry
		}
	}
	return next
}
