package out

import (
	"context"
	"errors"

	blockingin "webtally/internal/modules/blocking/port/in"
	prefsout "webtally/internal/modules/preferences/port/out"
)

type BlockingSinkAdapter struct {
	blocking blockingin.Usecase
}

func NewBlockingSinkAdapter(blocking blockingin.Usecase) prefsout.BlockListSink {
	return &BlockingSinkAdapter{blocking: blocking}
}

func (a *BlockingSinkAdapter) SetBlockedDomains(ctx context.Context, sites []string) error {
	status, err := a.blocking.SetBlockedDomains(ctx, sites)
	if err != nil {
		return err
	}
	if status.LastError != "" {
		return errors.New(status.LastError)
	}
	return nil
}
