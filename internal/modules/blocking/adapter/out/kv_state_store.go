package out

import (
	"context"
	"fmt"

	blockingout "webtally/internal/modules/blocking/port/out"
	"webtally/internal/platform/kv"
)

const blockingEnabledKey = "blockingEnabled"

type KVStateStore struct {
	store kv.Store
}

func NewKVStateStore(store kv.Store) blockingout.StateStore {
	return &KVStateStore{store: store}
}

func (s *KVStateStore) LoadManual(ctx context.Context) (bool, error) {
	enabled := false
	if _, err := s.store.Get(ctx, blockingEnabledKey, &enabled); err != nil {
		return false, fmt.Errorf("load blocking toggle: %w", err)
	}
	return enabled, nil
}

func (s *KVStateStore) SaveManual(ctx context.Context, enabled bool) error {
	if err := s.store.Put(ctx, blockingEnabledKey, enabled); err != nil {
		return fmt.Errorf("save blocking toggle: %w", err)
	}
	return nil
}
