package out

import (
	"context"
	"fmt"
	"time"

	reconcileout "webtally/internal/modules/reconcile/port/out"
	"webtally/internal/platform/kv"
)

const (
	lastSyncKey = "lastSync"
	clientIDKey = "clientId"
)

type KVMetaStore struct {
	store kv.Store
}

func NewKVMetaStore(store kv.Store) reconcileout.MetaStore {
	return &KVMetaStore{store: store}
}

func (s *KVMetaStore) LoadMeta(ctx context.Context) (reconcileout.Meta, error) {
	meta := reconcileout.Meta{}
	var lastSync *time.Time
	if _, err := s.store.Get(ctx, lastSyncKey, &lastSync); err != nil {
		return reconcileout.Meta{}, fmt.Errorf("load last sync: %w", err)
	}
	if lastSync != nil {
		meta.LastSync = *lastSync
	}
	if _, err := s.store.Get(ctx, clientIDKey, &meta.ClientID); err != nil {
		return reconcileout.Meta{}, fmt.Errorf("load client id: %w", err)
	}
	return meta, nil
}

func (s *KVMetaStore) SaveMeta(ctx context.Context, meta reconcileout.Meta) error {
	var lastSync *time.Time
	if !meta.LastSync.IsZero() {
		lastSync = &meta.LastSync
	}
	if err := s.store.PutMany(ctx, map[string]any{lastSyncKey: lastSync, clientIDKey: meta.ClientID}); err != nil {
		return fmt.Errorf("save sync metadata: %w", err)
	}
	return nil
}
