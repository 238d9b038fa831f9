package in

import (
	"context"

	"webtally/internal/modules/reconcile/domain"
	"webtally/internal/modules/reconcile/dto"
)

// Usecase splits a sync into Prepare and Commit, which touch local state,
// and Exchange, which only talks to the remote store and may run
// concurrently with other work.
type Usecase interface {
	Load(ctx context.Context) error
	Prepare(ctx context.Context) (domain.Envelope, error)
	Exchange(ctx context.Context, envelope domain.Envelope) (domain.Response, error)
	Commit(ctx context.Context, envelope domain.Envelope, response domain.Response) (dto.SyncOutput, error)
	Fail(ctx context.Context, cause error) (dto.StatusOutput, error)
	Sync(ctx context.Context) (dto.SyncOutput, error)

	LocalStatus(ctx context.Context) (dto.StatusOutput, error)
	RemoteStatus(ctx context.Context, owner string) (*dto.RemoteStatus, error)
	Status(ctx context.Context) (dto.StatusOutput, error)

	ForwardReport(ctx context.Context, owner string, report domain.Report) error
	Export(ctx context.Context, input dto.ExportInput) (dto.ExportOutput, error)
	Import(ctx context.Context, input dto.ImportInput) (dto.ImportOutput, error)
}
