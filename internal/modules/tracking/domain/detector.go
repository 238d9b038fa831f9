package domain

import (
	"sort"
	"time"

	"webtally/internal/platform/hostmatch"
)

type EventType string

const (
	EventInput    EventType = "input"
	EventFocus    EventType = "focus"
	EventBlur     EventType = "blur"
	EventVisible  EventType = "visible"
	EventHidden   EventType = "hidden"
	EventNavigate EventType = "navigate"
	EventClose    EventType = "close"
)

func (e EventType) Valid() bool {
	switch e {
	case EventInput, EventFocus, EventBlur, EventVisible, EventHidden, EventNavigate, EventClose:
		return true
	}
	return false
}

type Event struct {
	Type EventType
	URL  string
}

// ActivitySample is an amount of active time attributed to one domain.
type ActivitySample struct {
	ContextID   string
	Domain      string
	ActiveDelta time.Duration
	ObservedAt  time.Time
}

// BrowsingContext is the per-tab activity state.
type BrowsingContext struct {
	ID             string
	Domain         string
	LastActivityAt time.Time
	LastFlushAt    time.Time
	Active         bool
	Visible        bool
}

// Detector turns raw page signals into samples. Each emitted sample credits at
// most one emit interval, measured from the previous flush of its context.
type Detector struct {
	idleThreshold time.Duration
	emitInterval  time.Duration
	contexts      map[string]*BrowsingContext
}

func NewDetector(idleThreshold, emitInterval time.Duration) *Detector {
	return &Detector{
		idleThreshold: idleThreshold,
		emitInterval:  emitInterval,
		contexts:      map[string]*BrowsingContext{},
	}
}

// Observe applies one event. Navigation and close tear the context down and
// return its final sample.
func (d *Detector) Observe(contextID string, event Event, now time.Time) []ActivitySample {
	ctx, known := d.contexts[contextID]
	if !known {
		if event.Type == EventClose {
			return nil
		}
		ctx = d.open(contextID, event.URL, now)
		if event.Type == EventNavigate {
			return nil
		}
	}

	switch event.Type {
	case EventInput, EventFocus:
		ctx.Active = true
		ctx.LastActivityAt = now
	case EventBlur:
		ctx.Active = false
	case EventVisible:
		ctx.Visible = true
	case EventHidden:
		ctx.Visible = false
	case EventNavigate:
		var out []ActivitySample
		if sample, ok := d.flush(ctx, now); ok {
			out = append(out, sample)
		}
		d.open(contextID, event.URL, now)
		return out
	case EventClose:
		delete(d.contexts, contextID)
		if sample, ok := d.flush(ctx, now); ok {
			return []ActivitySample{sample}
		}
	}
	return nil
}

// CheckIdle marks contexts without input for longer than the threshold as
// inactive.
func (d *Detector) CheckIdle(now time.Time) {
	for _, ctx := range d.contexts {
		if ctx.Active && now.Sub(ctx.LastActivityAt) > d.idleThreshold {
			ctx.Active = false
		}
	}
}

// Emit produces one sample per active and visible context. Every context's
// flush mark moves to now whether or not it produced a sample.
func (d *Detector) Emit(now time.Time) []ActivitySample {
	d.CheckIdle(now)
	var out []ActivitySample
	for _, id := range d.ids() {
		ctx := d.contexts[id]
		if ctx.Active && ctx.Visible {
			if sample, ok := d.flush(ctx, now); ok {
				out = append(out, sample)
			}
		}
		ctx.LastFlushAt = now
	}
	return out
}

// Contexts returns copies of the live contexts ordered by id.
func (d *Detector) Contexts() []BrowsingContext {
	out := make([]BrowsingContext, 0, len(d.contexts))
	for _, id := range d.ids() {
		out = append(out, *d.contexts[id])
	}
	return out
}

// Teardown flushes and forgets every context.
func (d *Detector) Teardown(now time.Time) []ActivitySample {
	var out []ActivitySample
	for _, id := range d.ids() {
		if sample, ok := d.flush(d.contexts[id], now); ok {
			out = append(out, sample)
		}
	}
	d.contexts = map[string]*BrowsingContext{}
	return out
}

func (d *Detector) open(contextID, rawURL string, now time.Time) *BrowsingContext {
	host, _ := hostmatch.Host(rawURL)
	ctx := &BrowsingContext{
		ID:             contextID,
		Domain:         host,
		LastActivityAt: now,
		LastFlushAt:    now,
		Active:         true,
		Visible:        true,
	}
	d.contexts[contextID] = ctx
	return ctx
}

func (d *Detector) flush(ctx *BrowsingContext, now time.Time) (ActivitySample, bool) {
	delta := now.Sub(ctx.LastFlushAt)
	if delta > d.emitInterval {
		delta = d.emitInterval
	}
	ctx.LastFlushAt = now
	if ctx.Domain == "" || delta < time.Second {
		return ActivitySample{}, false
	}
	return ActivitySample{ContextID: ctx.ID, Domain: ctx.Domain, ActiveDelta: delta, ObservedAt: now}, true
}

func (d *Detector) ids() []string {
	ids := make([]string, 0, len(d.contexts))
	for id := range d.contexts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
