package out

import (
	"context"

	"webtally/internal/modules/reconcile/domain"
	reconcileout "webtally/internal/modules/reconcile/port/out"
	trackingdto "webtally/internal/modules/tracking/dto"
	trackingin "webtally/internal/modules/tracking/port/in"
)

type TrackingLedgerAdapter struct {
	tracking trackingin.Usecase
}

func NewTrackingLedgerAdapter(tracking trackingin.Usecase) reconcileout.LedgerPort {
	return &TrackingLedgerAdapter{tracking: tracking}
}

func (a *TrackingLedgerAdapter) Snapshot(ctx context.Context) (domain.TimeData, error) {
	data, err := a.tracking.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return domain.TimeData(data), nil
}

func (a *TrackingLedgerAdapter) Merge(ctx context.Context, incoming domain.TimeData) (int, error) {
	out, err := a.tracking.Merge(ctx, trackingdto.TimeData(incoming))
	if err != nil {
		return 0, err
	}
	return out.Changed, nil
}
