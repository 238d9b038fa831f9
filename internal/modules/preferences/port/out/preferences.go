package out

import (
	"context"

	"webtally/internal/modules/preferences/domain"
)

type PreferencesStore interface {
	// Load reports false when nothing has been stored yet.
	Load(ctx context.Context) (domain.Preferences, bool, error)
	Save(ctx context.Context, prefs domain.Preferences) error
}

// BlockListSink receives the authoritative blocked list whenever it changes.
type BlockListSink interface {
	SetBlockedDomains(ctx context.Context, sites []string) error
}
