package notify

import (
	"context"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"webtally/internal/platform/clock"
	"webtally/internal/platform/id"
)

const defaultCapacity = 50

type Notification struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Feed logs every notification and keeps the most recent ones for the
// presentation layer to poll.
type Feed struct {
	mu       sync.Mutex
	logger   hclog.Logger
	clock    clock.Clock
	ids      id.Generator
	capacity int
	items    []Notification
}

func NewFeed(logger hclog.Logger, clk clock.Clock, ids id.Generator, capacity int) *Feed {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Feed{logger: logger, clock: clk, ids: ids, capacity: capacity}
}

func (f *Feed) Notify(_ context.Context, title, message string) error {
	item := Notification{ID: f.ids.New(), Title: title, Message: message, At: f.clock.Now()}
	f.logger.Info("notification", "title", title, "message", message)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, item)
	if len(f.items) > f.capacity {
		f.items = append([]Notification(nil), f.items[len(f.items)-f.capacity:]...)
	}
	return nil
}

// Recent returns up to n notifications, newest first.
func (f *Feed) Recent(n int) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n <= 0 || n > len(f.items) {
		n = len(f.items)
	}
	out := make([]Notification, 0, n)
	for i := len(f.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, f.items[i])
	}
	return out
}
