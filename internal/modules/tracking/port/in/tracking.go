package in

import (
	"context"

	"webtally/internal/modules/tracking/dto"
)

type Usecase interface {
	Load(ctx context.Context) error
	HandleEvent(ctx context.Context, input dto.EventInput) error
	CheckIdle(ctx context.Context) error
	EmitActive(ctx context.Context) (dto.EmitOutput, error)
	Shutdown(ctx context.Context) error
	Today(ctx context.Context) (dto.DayOutput, error)
	Day(ctx context.Context, date string) (dto.DayOutput, error)
	Days(ctx context.Context) ([]string, error)
	Snapshot(ctx context.Context) (dto.TimeData, error)
	Merge(ctx context.Context, incoming dto.TimeData) (dto.MergeOutput, error)
	Contexts(ctx context.Context) ([]dto.ContextOutput, error)
}
