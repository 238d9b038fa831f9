package out

import (
	"context"

	prefsin "webtally/internal/modules/preferences/port/in"
	reportout "webtally/internal/modules/report/port/out"
)

type PreferencesListAdapter struct {
	preferences prefsin.Usecase
}

func NewPreferencesListAdapter(preferences prefsin.Usecase) reportout.ListSource {
	return &PreferencesListAdapter{preferences: preferences}
}

func (a *PreferencesListAdapter) Lists(ctx context.Context) ([]string, []string, error) {
	prefs, err := a.preferences.Get(ctx)
	if err != nil {
		return nil, nil, err
	}
	return prefs.Productive.Sites, prefs.Distracting.Sites, nil
}
