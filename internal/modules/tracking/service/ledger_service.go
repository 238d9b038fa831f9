package service

import (
	"context"
	"fmt"

	hclog "github.com/hashicorp/go-hclog"

	"webtally/internal/modules/tracking/domain"
	trackingout "webtally/internal/modules/tracking/port/out"
	"webtally/internal/platform/clock"
)

// LedgerService owns the in-memory ledger and writes it through to the store.
// A failed write keeps the ledger dirty; the next mutation or Flush retries.
type LedgerService struct {
	store  trackingout.LedgerStore
	clock  clock.Clock
	logger hclog.Logger

	ledger domain.Ledger
	dirty  bool
}

func NewLedgerService(store trackingout.LedgerStore, clk clock.Clock, logger hclog.Logger) *LedgerService {
	return &LedgerService{store: store, clock: clk, logger: logger, ledger: domain.Ledger{}}
}

func (s *LedgerService) Load(ctx context.Context) error {
	ledger, err := s.store.LoadLedger(ctx)
	if err != nil {
		return err
	}
	s.ledger = ledger
	s.dirty = false
	return nil
}

// Record credits a sample to the day it was observed on.
func (s *LedgerService) Record(ctx context.Context, sample domain.ActivitySample) error {
	seconds := int64(sample.ActiveDelta.Seconds())
	if seconds == 0 {
		return nil
	}
	observed := sample.ObservedAt
	if observed.IsZero() {
		observed = s.clock.Now()
	}
	if err := s.ledger.Record(domain.DateKey(observed), sample.Domain, seconds); err != nil {
		return err
	}
	s.persist(ctx)
	return nil
}

// Merge folds a remote ledger in by per-cell maximum.
func (s *LedgerService) Merge(ctx context.Context, incoming domain.Ledger) int {
	changed := s.ledger.MergeAll(incoming)
	if changed > 0 || s.dirty {
		s.persist(ctx)
	}
	return changed
}

func (s *LedgerService) Flush(ctx context.Context) error {
	if !s.dirty {
		return nil
	}
	if err := s.store.SaveLedger(ctx, s.ledger); err != nil {
		return fmt.Errorf("flush ledger: %w", err)
	}
	s.dirty = false
	return nil
}

func (s *LedgerService) Snapshot() domain.Ledger {
	return s.ledger.Clone()
}

func (s *LedgerService) Day(date string) map[string]int64 {
	return s.ledger.Day(date)
}

func (s *LedgerService) Dates() []string {
	return s.ledger.Dates()
}

func (s *LedgerService) Today() string {
	return domain.DateKey(s.clock.Now())
}

func (s *LedgerService) Dirty() bool {
	return s.dirty
}

func (s *LedgerService) persist(ctx context.Context) {
	if err := s.store.SaveLedger(ctx, s.ledger); err != nil {
		s.dirty = true
		s.logger.Warn("persist ledger failed, will retry", "error", err)
		return
	}
	s.dirty = false
}
