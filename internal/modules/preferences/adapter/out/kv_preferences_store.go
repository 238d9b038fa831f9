package out

import (
	"context"
	"fmt"
	"time"

	"webtally/internal/modules/preferences/domain"
	prefsout "webtally/internal/modules/preferences/port/out"
	"webtally/internal/platform/kv"
)

const (
	productiveKey  = "productiveSites"
	distractingKey = "distractingSites"
	blockedKey     = "blockedSites"
	updatedAtKey   = "preferencesUpdatedAt"
)

type KVPreferencesStore struct {
	store kv.Store
}

func NewKVPreferencesStore(store kv.Store) prefsout.PreferencesStore {
	return &KVPreferencesStore{store: store}
}

func (s *KVPreferencesStore) Load(ctx context.Context) (domain.Preferences, bool, error) {
	prefs := domain.Preferences{}
	found := false
	for _, item := range []struct {
		key  string
		dest *[]string
	}{
		{productiveKey, &prefs.Productive.Sites},
		{distractingKey, &prefs.Distracting.Sites},
		{blockedKey, &prefs.Blocked.Sites},
	} {
		ok, err := s.store.Get(ctx, item.key, item.dest)
		if err != nil {
			return domain.Preferences{}, false, fmt.Errorf("load preferences: %w", err)
		}
		found = found || ok
	}
	if !found {
		return domain.Preferences{}, false, nil
	}

	stamps := map[string]time.Time{}
	if _, err := s.store.Get(ctx, updatedAtKey, &stamps); err != nil {
		return domain.Preferences{}, false, fmt.Errorf("load preferences timestamps: %w", err)
	}
	for _, name := range domain.ListNames {
		list := prefs.List(name)
		list.UpdatedAt = stamps[string(name)]
		prefs.SetList(name, list)
	}
	return prefs, true, nil
}

func (s *KVPreferencesStore) Save(ctx context.Context, prefs domain.Preferences) error {
	stamps := map[string]time.Time{}
	for _, name := range domain.ListNames {
		stamps[string(name)] = prefs.List(name).UpdatedAt
	}
	err := s.store.PutMany(ctx, map[string]any{
		productiveKey:  nonNil(prefs.Productive.Sites),
		distractingKey: nonNil(prefs.Distracting.Sites),
		blockedKey:     nonNil(prefs.Blocked.Sites),
		updatedAtKey:   stamps,
	})
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

func nonNil(sites []string) []string {
	if sites == nil {
		return []string{}
	}
	return sites
}
