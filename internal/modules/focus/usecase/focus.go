package usecase

import (
	"context"
	"time"

	"webtally/internal/modules/focus/domain"
	"webtally/internal/modules/focus/dto"
	focusin "webtally/internal/modules/focus/port/in"
	"webtally/internal/modules/focus/service"
)

type Interactor struct {
	svc *service.FocusService
}

func NewInteractor(svc *service.FocusService) focusin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Load(ctx context.Context) error {
	return i.svc.Load(ctx)
}

func (i *Interactor) Start(ctx context.Context, input dto.StartInput) (dto.SessionOutput, error) {
	session, err := i.svc.Start(ctx, input.Minutes)
	if err != nil {
		return dto.SessionOutput{}, err
	}
	return toOutput(session, i.svc.Now()), nil
}

func (i *Interactor) Stop(ctx context.Context) (dto.SessionOutput, error) {
	session, err := i.svc.Stop(ctx)
	if err != nil {
		return dto.SessionOutput{}, err
	}
	return toOutput(session, i.svc.Now()), nil
}

func (i *Interactor) Restore(ctx context.Context, input dto.RestoreInput) (dto.SessionOutput, error) {
	session := i.svc.Restore(ctx, domain.Session{
		Active:          true,
		StartedAt:       input.StartedAt,
		EndTime:         input.EndTime,
		DurationMinutes: input.DurationMinutes,
	})
	return toOutput(session, i.svc.Now()), nil
}

func (i *Interactor) Tick(ctx context.Context) (dto.TickOutput, error) {
	ended := i.svc.Tick(ctx)
	return dto.TickOutput{Ended: ended, Session: toOutput(i.svc.Current(), i.svc.Now())}, nil
}

func (i *Interactor) Current(context.Context) (dto.SessionOutput, error) {
	return toOutput(i.svc.Current(), i.svc.Now()), nil
}

func toOutput(session domain.Session, now time.Time) dto.SessionOutput {
	return dto.SessionOutput{
		Active:           session.Active,
		StartedAt:        session.StartedAt,
		EndTime:          session.EndTime,
		DurationMinutes:  session.DurationMinutes,
		RemainingSeconds: int64(session.Remaining(now) / time.Second),
	}
}
