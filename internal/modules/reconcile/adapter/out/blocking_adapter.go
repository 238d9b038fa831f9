package out

import (
	"context"

	blockingin "webtally/internal/modules/blocking/port/in"
	reconcileout "webtally/internal/modules/reconcile/port/out"
)

type BlockingAdapter struct {
	blocking blockingin.Usecase
}

func NewBlockingAdapter(blocking blockingin.Usecase) reconcileout.BlockingPort {
	return &BlockingAdapter{blocking: blocking}
}

func (a *BlockingAdapter) Manual(ctx context.Context) (bool, error) {
	status, err := a.blocking.Status(ctx)
	if err != nil {
		return false, err
	}
	return status.ManualEnabled, nil
}

func (a *BlockingAdapter) SetManual(ctx context.Context, enabled bool) error {
	_, err := a.blocking.SetManual(ctx, enabled)
	return err
}
