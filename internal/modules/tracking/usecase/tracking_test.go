package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	trackingout "webtally/internal/modules/tracking/adapter/out"
	"webtally/internal/modules/tracking/domain"
	"webtally/internal/modules/tracking/dto"
	trackingin "webtally/internal/modules/tracking/port/in"
	trackingport "webtally/internal/modules/tracking/port/out"
	"webtally/internal/modules/tracking/service"
	"webtally/internal/modules/tracking/usecase"
	apperrors "webtally/internal/platform/errors"
	"webtally/internal/platform/kv"
	"webtally/internal/platform/scheduler"
)

type flakyLedgerStore struct {
	failures int
	saved    domain.Ledger
	saves    int
}

func (s *flakyLedgerStore) LoadLedger(context.Context) (domain.Ledger, error) {
	return domain.Ledger{}, nil
}

func (s *flakyLedgerStore) SaveLedger(_ context.Context, ledger domain.Ledger) error {
	s.saves++
	if s.failures > 0 {
		s.failures--
		return errors.New("disk full")
	}
	s.saved = ledger.Clone()
	return nil
}

func newTracking(t *testing.T, clk *scheduler.Manual, store trackingport.LedgerStore) (trackingin.Usecase, *service.LedgerService) {
	t.Helper()
	logger := hclog.NewNullLogger()
	ledger := service.NewLedgerService(store, clk, logger)
	detector := service.NewDetectorService(domain.NewDetector(30*time.Second, 10*time.Second), ledger, clk, logger)
	uc := usecase.NewInteractor(ledger, detector)
	if err := uc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return uc, ledger
}

func TestEventsFlowIntoPersistedLedger(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := scheduler.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	mem := kv.NewMemory()
	uc, _ := newTracking(t, clk, trackingout.NewKVLedgerStore(mem))

	if err := uc.HandleEvent(ctx, dto.EventInput{ContextID: "tab-1", Type: "input", URL: "https://github.com/x"}); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	clk.Advance(10 * time.Second)
	out, err := uc.EmitActive(ctx)
	if err != nil || out.Samples != 1 {
		t.Fatalf("emit: %+v %v", out, err)
	}
	clk.Advance(5 * time.Second)
	if err := uc.HandleEvent(ctx, dto.EventInput{ContextID: "tab-1", Type: "close"}); err != nil {
		t.Fatalf("close: %v", err)
	}

	today, err := uc.Today(ctx)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if today.Date != "2026-03-01" || today.Total != 15 || today.Domains[0].Domain != "github.com" {
		t.Fatalf("unexpected today: %+v", today)
	}

	reloaded, _ := newTracking(t, clk, trackingout.NewKVLedgerStore(mem))
	day, err := reloaded.Day(ctx, "2026-03-01")
	if err != nil || day.Total != 15 {
		t.Fatalf("persisted ledger not reloaded: %+v %v", day, err)
	}
}

func TestPersistFailureKeepsIncrementAndRetries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := scheduler.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store := &flakyLedgerStore{failures: 1}
	uc, ledger := newTracking(t, clk, store)

	_ = uc.HandleEvent(ctx, dto.EventInput{ContextID: "tab-1", Type: "input", URL: "https://github.com"})
	clk.Advance(10 * time.Second)
	if _, err := uc.EmitActive(ctx); err != nil {
		t.Fatalf("emit must not surface transient store failures: %v", err)
	}
	if !ledger.Dirty() {
		t.Fatalf("ledger should be dirty after a failed write")
	}
	snapshot, _ := uc.Snapshot(ctx)
	if snapshot["2026-03-01"]["github.com"] != 10 {
		t.Fatalf("in-memory increment lost: %v", snapshot)
	}

	clk.Advance(10 * time.Second)
	if _, err := uc.EmitActive(ctx); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if ledger.Dirty() || store.saved["2026-03-01"]["github.com"] != 20 {
		t.Fatalf("retry did not persist full ledger: dirty=%t saved=%v", ledger.Dirty(), store.saved)
	}
}

func TestMergeAndValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := scheduler.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	uc, _ := newTracking(t, clk, trackingout.NewKVLedgerStore(kv.NewMemory()))

	out, err := uc.Merge(ctx, dto.TimeData{"2026-02-28": {"github.com": 200, "reddit.com": 0}})
	if err != nil || out.Changed != 2 {
		t.Fatalf("merge: %+v %v", out, err)
	}
	again, _ := uc.Merge(ctx, dto.TimeData{"2026-02-28": {"github.com": 120}})
	if again.Changed != 0 {
		t.Fatalf("lower value changed ledger: %+v", again)
	}
	days, _ := uc.Days(ctx)
	if len(days) != 1 || days[0] != "2026-02-28" {
		t.Fatalf("unexpected days: %v", days)
	}

	if err := uc.HandleEvent(ctx, dto.EventInput{ContextID: "tab-1", Type: "wiggle"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := uc.Day(ctx, "yesterday"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
