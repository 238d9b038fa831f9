package out

import (
	"context"
	"fmt"

	"webtally/internal/modules/tracking/domain"
	trackingout "webtally/internal/modules/tracking/port/out"
	"webtally/internal/platform/kv"
)

const ledgerKey = "timeLedger"

type KVLedgerStore struct {
	store kv.Store
}

func NewKVLedgerStore(store kv.Store) trackingout.LedgerStore {
	return &KVLedgerStore{store: store}
}

func (s *KVLedgerStore) LoadLedger(ctx context.Context) (domain.Ledger, error) {
	ledger := domain.Ledger{}
	if _, err := s.store.Get(ctx, ledgerKey, &ledger); err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if ledger == nil {
		ledger = domain.Ledger{}
	}
	return ledger, nil
}

func (s *KVLedgerStore) SaveLedger(ctx context.Context, ledger domain.Ledger) error {
	if err := s.store.Put(ctx, ledgerKey, ledger); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}
