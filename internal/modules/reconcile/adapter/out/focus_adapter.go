package out

import (
	"context"

	focusdto "webtally/internal/modules/focus/dto"
	focusin "webtally/internal/modules/focus/port/in"
	"webtally/internal/modules/reconcile/domain"
	reconcileout "webtally/internal/modules/reconcile/port/out"
)

type FocusAdapter struct {
	focus focusin.Usecase
}

func NewFocusAdapter(focus focusin.Usecase) reconcileout.FocusPort {
	return &FocusAdapter{focus: focus}
}

func (a *FocusAdapter) Current(ctx context.Context) (domain.FocusSession, error) {
	session, err := a.focus.Current(ctx)
	if err != nil {
		return domain.FocusSession{}, err
	}
	return domain.FocusSession{
		Active:          session.Active,
		StartedAt:       session.StartedAt,
		EndTime:         session.EndTime,
		DurationMinutes: session.DurationMinutes,
	}, nil
}

func (a *FocusAdapter) Restore(ctx context.Context, session domain.FocusSession) (bool, error) {
	out, err := a.focus.Restore(ctx, focusdto.RestoreInput{
		StartedAt:       session.StartedAt,
		EndTime:         session.EndTime,
		DurationMinutes: session.DurationMinutes,
	})
	if err != nil {
		return false, err
	}
	return out.Active && out.EndTime.Equal(session.EndTime), nil
}
