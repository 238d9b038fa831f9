package notify_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"webtally/internal/platform/notify"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type seqID struct{ n int }

func (s *seqID) New() string {
	s.n++
	return fmt.Sprintf("n-%d", s.n)
}

func TestFeedKeepsNewestFirstWithinCapacity(t *testing.T) {
	t.Parallel()
	feed := notify.NewFeed(hclog.NewNullLogger(), fixedClock{at: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)}, &seqID{}, 2)
	for _, title := range []string{"Focus Session Started", "Focus Session Ended", "Daily Report"} {
		if err := feed.Notify(context.Background(), title, "body"); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}
	recent := feed.Recent(10)
	if len(recent) != 2 {
		t.Fatalf("expected capacity to cap feed, got %d", len(recent))
	}
	if recent[0].Title != "Daily Report" || recent[1].Title != "Focus Session Ended" {
		t.Fatalf("unexpected order: %+v", recent)
	}
	if recent[0].ID != "n-3" {
		t.Fatalf("unexpected id: %s", recent[0].ID)
	}
}
