package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	focusadapter "webtally/internal/modules/focus/adapter/out"
	"webtally/internal/modules/focus/domain"
	"webtally/internal/modules/focus/dto"
	focusin "webtally/internal/modules/focus/port/in"
	"webtally/internal/modules/focus/service"
	"webtally/internal/modules/focus/usecase"
	apperrors "webtally/internal/platform/errors"
	"webtally/internal/platform/kv"
	"webtally/internal/platform/scheduler"
)

type fakeBlocking struct {
	calls []bool
}

func (f *fakeBlocking) SetFocusActive(_ context.Context, active bool) error {
	f.calls = append(f.calls, active)
	return nil
}

type fakeNotifier struct {
	titles []string
}

func (f *fakeNotifier) Notify(_ context.Context, title, _ string) error {
	f.titles = append(f.titles, title)
	return nil
}

type focusHarness struct {
	uc       focusin.Usecase
	clock    *scheduler.Manual
	blocking *fakeBlocking
	notifier *fakeNotifier
	store    kv.Store
}

func newFocus(t *testing.T, store kv.Store, start time.Time) focusHarness {
	t.Helper()
	h := focusHarness{
		clock:    scheduler.NewManual(start),
		blocking: &fakeBlocking{},
		notifier: &fakeNotifier{},
		store:    store,
	}
	svc := service.NewFocusService(focusadapter.NewKVSessionStore(store), h.blocking, h.notifier, h.clock, hclog.NewNullLogger())
	h.uc = usecase.NewInteractor(svc)
	if err := h.uc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return h
}

func (h focusHarness) tickEvery(t *testing.T, step time.Duration, count int) int {
	t.Helper()
	ended := 0
	for i := 0; i < count; i++ {
		h.clock.Advance(step)
		out, err := h.uc.Tick(context.Background())
		if err != nil {
			t.Fatalf("tick: %v", err)
		}
		if out.Ended {
			ended++
		}
	}
	return ended
}

func TestSessionExpiresExactlyOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newFocus(t, kv.NewMemory(), time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))

	session, err := h.uc.Start(ctx, dto.StartInput{Minutes: 30})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.RemainingSeconds != 1800 {
		t.Fatalf("unexpected remaining: %d", session.RemainingSeconds)
	}
	if ended := h.tickEvery(t, time.Minute, 45); ended != 1 {
		t.Fatalf("expected exactly one expiry, got %d", ended)
	}
	if len(h.blocking.calls) != 2 || !h.blocking.calls[0] || h.blocking.calls[1] {
		t.Fatalf("unexpected blocking calls: %v", h.blocking.calls)
	}
	if len(h.notifier.titles) != 2 || h.notifier.titles[1] != "Focus Session Ended" {
		t.Fatalf("unexpected notifications: %v", h.notifier.titles)
	}
	current, err := h.uc.Current(ctx)
	if err != nil || current.Active {
		t.Fatalf("expected idle after expiry: %+v %v", current, err)
	}
}

func TestStopCancelsPendingExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newFocus(t, kv.NewMemory(), time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))

	if _, err := h.uc.Start(ctx, dto.StartInput{Minutes: 30}); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.tickEvery(t, time.Minute, 10)
	if _, err := h.uc.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if ended := h.tickEvery(t, time.Minute, 40); ended != 0 {
		t.Fatalf("expected no expiry after stop, got %d", ended)
	}
	if len(h.blocking.calls) != 2 || h.blocking.calls[1] {
		t.Fatalf("expected one deactivation, got %v", h.blocking.calls)
	}
	if _, err := h.uc.Stop(ctx); !errors.Is(err, apperrors.ErrNoActiveFocusSession) {
		t.Fatalf("expected no active session error, got %v", err)
	}
	if len(h.blocking.calls) != 2 || len(h.notifier.titles) != 2 {
		t.Fatalf("idle stop produced side effects: %v %v", h.blocking.calls, h.notifier.titles)
	}
}

func TestStartRejectsOutOfRangeWithoutSideEffects(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newFocus(t, kv.NewMemory(), time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))

	for _, minutes := range []int{0, 181} {
		if _, err := h.uc.Start(ctx, dto.StartInput{Minutes: minutes}); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("minutes %d: expected invalid input, got %v", minutes, err)
		}
	}
	if len(h.blocking.calls) != 0 || len(h.notifier.titles) != 0 {
		t.Fatalf("rejected start had side effects")
	}
}

func TestRestartReplacesSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newFocus(t, kv.NewMemory(), time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))

	if _, err := h.uc.Start(ctx, dto.StartInput{Minutes: 10}); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.clock.Advance(5 * time.Minute)
	second, err := h.uc.Start(ctx, dto.StartInput{Minutes: 20})
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if !second.EndTime.Equal(h.clock.Now().Add(20 * time.Minute)) {
		t.Fatalf("unexpected end time: %s", second.EndTime)
	}
	if ended := h.tickEvery(t, time.Minute, 10); ended != 0 {
		t.Fatalf("first session end leaked through")
	}
}

func TestLoadRestoresLiveSessionAndExpiresStaleOne(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	live := kv.NewMemory()
	session, _ := domain.NewSession(60, start.Add(-10*time.Minute))
	if err := live.Put(ctx, "focusSession", session); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h := newFocus(t, live, start)
	if len(h.blocking.calls) != 1 || !h.blocking.calls[0] {
		t.Fatalf("expected focus blocking restored, got %v", h.blocking.calls)
	}
	current, _ := h.uc.Current(ctx)
	if current.RemainingSeconds != 50*60 {
		t.Fatalf("unexpected remaining: %d", current.RemainingSeconds)
	}

	stale := kv.NewMemory()
	old, _ := domain.NewSession(30, start.Add(-2*time.Hour))
	if err := stale.Put(ctx, "focusSession", old); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h = newFocus(t, stale, start)
	if len(h.blocking.calls) != 0 {
		t.Fatalf("expired session should not re-enable blocking")
	}
	out, err := h.uc.Tick(ctx)
	if err != nil || !out.Ended {
		t.Fatalf("expected first tick to expire: %+v %v", out, err)
	}
	persisted := domain.Session{}
	if _, err := stale.Get(ctx, "focusSession", &persisted); err != nil || persisted.Active {
		t.Fatalf("expected idle persisted: %+v %v", persisted, err)
	}
}

func TestRestoreAdoptsOnlyLiveSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	h := newFocus(t, kv.NewMemory(), now)

	stale, err := h.uc.Restore(ctx, dto.RestoreInput{StartedAt: now.Add(-time.Hour), EndTime: now.Add(-30 * time.Minute), DurationMinutes: 30})
	if err != nil {
		t.Fatalf("restore stale: %v", err)
	}
	if stale.Active || len(h.blocking.calls) != 0 {
		t.Fatalf("ended session should be ignored: %+v %v", stale, h.blocking.calls)
	}

	live, err := h.uc.Restore(ctx, dto.RestoreInput{StartedAt: now.Add(-10 * time.Minute), EndTime: now.Add(20 * time.Minute), DurationMinutes: 30})
	if err != nil {
		t.Fatalf("restore live: %v", err)
	}
	if !live.Active || live.RemainingSeconds != 1200 {
		t.Fatalf("unexpected restored session: %+v", live)
	}
	if len(h.blocking.calls) != 1 || !h.blocking.calls[0] || len(h.notifier.titles) != 0 {
		t.Fatalf("restore should block quietly: %v %v", h.blocking.calls, h.notifier.titles)
	}

	reloaded := newFocus(t, h.store, now.Add(time.Minute))
	current, err := reloaded.uc.Current(ctx)
	if err != nil || !current.Active || !current.EndTime.Equal(now.Add(20*time.Minute)) {
		t.Fatalf("restored session not persisted: %+v %v", current, err)
	}
	if ended := h.tickEvery(t, time.Minute, 25); ended != 1 {
		t.Fatalf("expected restored session to expire once, got %d", ended)
	}
}
