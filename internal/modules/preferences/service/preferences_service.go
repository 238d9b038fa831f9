package service

import (
	"context"
	"fmt"

	"webtally/internal/modules/preferences/domain"
	prefsout "webtally/internal/modules/preferences/port/out"
	"webtally/internal/platform/clock"
	"webtally/internal/platform/hostmatch"
)

type PreferencesService struct {
	store prefsout.PreferencesStore
	clock clock.Clock
	prefs domain.Preferences
}

func NewPreferencesService(store prefsout.PreferencesStore, clk clock.Clock) *PreferencesService {
	return &PreferencesService{store: store, clock: clk, prefs: domain.Defaults()}
}

// Load restores stored lists, seeding the defaults on first run.
func (s *PreferencesService) Load(ctx context.Context) error {
	prefs, ok, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		prefs = domain.Defaults()
		if err := s.store.Save(ctx, prefs); err != nil {
			return err
		}
	}
	s.prefs = prefs
	return nil
}

func (s *PreferencesService) Get() domain.Preferences {
	return s.prefs
}

func (s *PreferencesService) Add(ctx context.Context, name domain.ListName, site string) (domain.List, bool, error) {
	next, changed, err := s.prefs.List(name).Add(site, s.clock.Now())
	if err != nil || !changed {
		return next, false, err
	}
	return s.commit(ctx, name, next)
}

func (s *PreferencesService) Remove(ctx context.Context, name domain.ListName, site string) (domain.List, bool, error) {
	next, changed := s.prefs.List(name).Remove(site, s.clock.Now())
	if !changed {
		return next, false, nil
	}
	return s.commit(ctx, name, next)
}

// Replace overwrites a list wholesale. Sites are normalized and deduplicated.
func (s *PreferencesService) Replace(ctx context.Context, name domain.ListName, list domain.List) (domain.List, bool, error) {
	seen := map[string]bool{}
	sites := make([]string, 0, len(list.Sites))
	for _, raw := range list.Sites {
		site := hostmatch.Normalize(raw)
		if site == "" || seen[site] {
			continue
		}
		seen[site] = true
		sites = append(sites, site)
	}
	next := domain.List{Sites: sites, UpdatedAt: list.UpdatedAt}
	if next.UpdatedAt.IsZero() {
		next.UpdatedAt = s.clock.Now()
	}
	current := s.prefs.List(name)
	if equalSites(current.Sites, next.Sites) && current.UpdatedAt.Equal(next.UpdatedAt) {
		return current, false, nil
	}
	return s.commit(ctx, name, next)
}

func (s *PreferencesService) commit(ctx context.Context, name domain.ListName, list domain.List) (domain.List, bool, error) {
	updated := s.prefs
	updated.SetList(name, list)
	if err := s.store.Save(ctx, updated); err != nil {
		return domain.List{}, false, fmt.Errorf("save %s list: %w", name, err)
	}
	s.prefs = updated
	return updated.List(name), true, nil
}

func equalSites(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
