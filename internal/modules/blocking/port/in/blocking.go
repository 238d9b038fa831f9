package in

import (
	"context"

	"webtally/internal/modules/blocking/dto"
)

type Usecase interface {
	Init(ctx context.Context) error
	SetBlockedDomains(ctx context.Context, sites []string) (dto.StatusOutput, error)
	SetManual(ctx context.Context, enabled bool) (dto.StatusOutput, error)
	SetFocusActive(ctx context.Context, active bool) (dto.StatusOutput, error)
	Recompute(ctx context.Context) (dto.StatusOutput, error)
	Status(ctx context.Context) (dto.StatusOutput, error)
	// Decide is safe to call from any goroutine.
	Decide(rawURL string) dto.DecisionOutput
	Close() error
}
