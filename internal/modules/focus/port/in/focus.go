package in

import (
	"context"

	"webtally/internal/modules/focus/dto"
)

type Usecase interface {
	Load(ctx context.Context) error
	Start(ctx context.Context, input dto.StartInput) (dto.SessionOutput, error)
	Stop(ctx context.Context) (dto.SessionOutput, error)
	// Restore adopts an imported session that has not yet run out.
	Restore(ctx context.Context, input dto.RestoreInput) (dto.SessionOutput, error)
	Tick(ctx context.Context) (dto.TickOutput, error)
	Current(ctx context.Context) (dto.SessionOutput, error)
}
