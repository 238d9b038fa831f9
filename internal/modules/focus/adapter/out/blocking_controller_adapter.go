package out

import (
	"context"
	"errors"

	blockingin "webtally/internal/modules/blocking/port/in"
	focusout "webtally/internal/modules/focus/port/out"
)

type BlockingControllerAdapter struct {
	blocking blockingin.Usecase
}

func NewBlockingControllerAdapter(blocking blockingin.Usecase) focusout.BlockingController {
	return &BlockingControllerAdapter{blocking: blocking}
}

func (a *BlockingControllerAdapter) SetFocusActive(ctx context.Context, active bool) error {
	status, err := a.blocking.SetFocusActive(ctx, active)
	if err != nil {
		return err
	}
	if status.LastError != "" {
		return errors.New(status.LastError)
	}
	return nil
}
