package out

import (
	"context"

	prefsdto "webtally/internal/modules/preferences/dto"
	prefsin "webtally/internal/modules/preferences/port/in"
	"webtally/internal/modules/reconcile/domain"
	reconcileout "webtally/internal/modules/reconcile/port/out"
)

type PreferencesAdapter struct {
	preferences prefsin.Usecase
}

func NewPreferencesAdapter(preferences prefsin.Usecase) reconcileout.PreferencesPort {
	return &PreferencesAdapter{preferences: preferences}
}

func (a *PreferencesAdapter) Lists(ctx context.Context) (domain.Lists, error) {
	prefs, err := a.preferences.Get(ctx)
	if err != nil {
		return domain.Lists{}, err
	}
	return domain.Lists{
		Productive:  toList(prefs.Productive),
		Distracting: toList(prefs.Distracting),
		Blocked:     toList(prefs.Blocked),
	}, nil
}

func (a *PreferencesAdapter) Replace(ctx context.Context, name string, list domain.List) error {
	_, err := a.preferences.ReplaceList(ctx, prefsdto.ReplaceListInput{List: name, Sites: list.Sites, UpdatedAt: list.UpdatedAt})
	return err
}

func toList(list prefsdto.ListOutput) domain.List {
	return domain.List{Sites: append([]string{}, list.Sites...), UpdatedAt: list.UpdatedAt}
}
