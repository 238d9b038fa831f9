package out

import (
	"context"
	"time"

	"webtally/internal/modules/report/domain"
)

type LedgerReader interface {
	Day(ctx context.Context, date string) (map[string]int64, error)
}

type ListSource interface {
	Lists(ctx context.Context) (productive, distracting []string, err error)
}

type ReportStore interface {
	Save(ctx context.Context, report domain.DailyReport) error
	Get(ctx context.Context, date string) (domain.DailyReport, error)
	Recent(ctx context.Context, limit int) ([]domain.DailyReport, error)
	// Pending lists reports the remote store has not acknowledged, oldest
	// first.
	Pending(ctx context.Context) ([]domain.DailyReport, error)
	MarkSynced(ctx context.Context, versions []domain.Version, at time.Time) error
}

type NoteWriter interface {
	Write(ctx context.Context, report domain.DailyReport) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}
