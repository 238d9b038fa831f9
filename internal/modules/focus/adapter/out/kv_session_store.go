package out

import (
	"context"
	"fmt"

	"webtally/internal/modules/focus/domain"
	focusout "webtally/internal/modules/focus/port/out"
	"webtally/internal/platform/kv"
)

const focusSessionKey = "focusSession"

type KVSessionStore struct {
	store kv.Store
}

func NewKVSessionStore(store kv.Store) focusout.SessionStore {
	return &KVSessionStore{store: store}
}

func (s *KVSessionStore) Load(ctx context.Context) (domain.Session, error) {
	session := domain.Session{}
	if _, err := s.store.Get(ctx, focusSessionKey, &session); err != nil {
		return domain.Session{}, fmt.Errorf("load focus session: %w", err)
	}
	return session, nil
}

func (s *KVSessionStore) Save(ctx context.Context, session domain.Session) error {
	if err := s.store.Put(ctx, focusSessionKey, session); err != nil {
		return fmt.Errorf("save focus session: %w", err)
	}
	return nil
}
