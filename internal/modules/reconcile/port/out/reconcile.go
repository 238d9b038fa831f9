package out

import (
	"context"
	"time"

	"webtally/internal/modules/reconcile/domain"
	"webtally/internal/modules/reconcile/dto"
)

type RemoteStore interface {
	Push(ctx context.Context, envelope domain.Envelope) (domain.Response, error)
	PushReport(ctx context.Context, owner string, report domain.Report) error
	Status(ctx context.Context, owner string) (dto.RemoteStatus, error)
}

type LedgerPort interface {
	Snapshot(ctx context.Context) (domain.TimeData, error)
	Merge(ctx context.Context, incoming domain.TimeData) (int, error)
}

type PreferencesPort interface {
	Lists(ctx context.Context) (domain.Lists, error)
	Replace(ctx context.Context, name string, list domain.List) error
}

type ReportPort interface {
	Pending(ctx context.Context) ([]domain.Report, error)
	// MarkSynced acknowledges exactly the versions that were delivered.
	MarkSynced(ctx context.Context, reports []domain.ReportVersion, at time.Time) error
}

type BlockingPort interface {
	Manual(ctx context.Context) (bool, error)
	SetManual(ctx context.Context, enabled bool) error
}

type FocusPort interface {
	Current(ctx context.Context) (domain.FocusSession, error)
	// Restore reports whether the session was adopted.
	Restore(ctx context.Context, session domain.FocusSession) (bool, error)
}

// Meta is the sync bookkeeping kept beside the state document.
type Meta struct {
	LastSync time.Time
	ClientID string
}

type MetaStore interface {
	LoadMeta(ctx context.Context) (Meta, error)
	SaveMeta(ctx context.Context, meta Meta) error
}
