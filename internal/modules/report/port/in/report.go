package in

import (
	"context"

	"webtally/internal/modules/report/dto"
)

type Usecase interface {
	// GenerateDaily reports on the day before now and sends the summary
	// notification.
	GenerateDaily(ctx context.Context) (dto.ReportOutput, error)
	Generate(ctx context.Context, date string) (dto.ReportOutput, error)
	Get(ctx context.Context, date string) (dto.ReportOutput, error)
	Recent(ctx context.Context, limit int) ([]dto.ReportOutput, error)
	Pending(ctx context.Context) ([]dto.ReportOutput, error)
	MarkSynced(ctx context.Context, input dto.MarkSyncedInput) error
}
