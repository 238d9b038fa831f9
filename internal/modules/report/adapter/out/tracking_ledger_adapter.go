package out

import (
	"context"

	reportout "webtally/internal/modules/report/port/out"
	trackingin "webtally/internal/modules/tracking/port/in"
)

type TrackingLedgerAdapter struct {
	tracking trackingin.Usecase
}

func NewTrackingLedgerAdapter(tracking trackingin.Usecase) reportout.LedgerReader {
	return &TrackingLedgerAdapter{tracking: tracking}
}

func (a *TrackingLedgerAdapter) Day(ctx context.Context, date string) (map[string]int64, error) {
	day, err := a.tracking.Day(ctx, date)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(day.Domains))
	for _, entry := range day.Domains {
		out[entry.Domain] = entry.Seconds
	}
	return out, nil
}
