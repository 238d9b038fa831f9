package usecase

import (
	"context"

	hclog "github.com/hashicorp/go-hclog"

	"webtally/internal/modules/reconcile/domain"
	"webtally/internal/modules/reconcile/dto"
	reconcilein "webtally/internal/modules/reconcile/port/in"
	"webtally/internal/modules/reconcile/service"
)

type Interactor struct {
	svc    *service.ReconcileService
	logger hclog.Logger
}

func NewInteractor(svc *service.ReconcileService, logger hclog.Logger) reconcilein.Usecase {
	return &Interactor{svc: svc, logger: logger}
}

func (i *Interactor) Load(ctx context.Context) error {
	return i.svc.Load(ctx)
}

func (i *Interactor) Prepare(ctx context.Context) (domain.Envelope, error) {
	return i.svc.Prepare(ctx)
}

func (i *Interactor) Exchange(ctx context.Context, envelope domain.Envelope) (domain.Response, error) {
	return i.svc.Exchange(ctx, envelope)
}

func (i *Interactor) Commit(ctx context.Context, envelope domain.Envelope, response domain.Response) (dto.SyncOutput, error) {
	return i.svc.Commit(ctx, envelope, response)
}

func (i *Interactor) Fail(_ context.Context, cause error) (dto.StatusOutput, error) {
	return i.svc.Fail(cause), nil
}

func (i *Interactor) Sync(ctx context.Context) (dto.SyncOutput, error) {
	return i.svc.Sync(ctx)
}

func (i *Interactor) LocalStatus(context.Context) (dto.StatusOutput, error) {
	return i.svc.LocalStatus(), nil
}

func (i *Interactor) RemoteStatus(ctx context.Context, owner string) (*dto.RemoteStatus, error) {
	return i.svc.RemoteStatus(ctx, owner)
}

// Status includes the remote view when the remote store answers.
func (i *Interactor) Status(ctx context.Context) (dto.StatusOutput, error) {
	status := i.svc.LocalStatus()
	remote, err := i.svc.RemoteStatus(ctx, status.Owner)
	if err != nil {
		i.logger.Debug("remote sync status unavailable", "error", err)
		return status, nil
	}
	status.Remote = remote
	return status, nil
}

func (i *Interactor) ForwardReport(ctx context.Context, owner string, report domain.Report) error {
	return i.svc.ForwardReport(ctx, owner, report)
}

func (i *Interactor) Export(ctx context.Context, input dto.ExportInput) (dto.ExportOutput, error) {
	doc, err := i.svc.Export(ctx)
	if err != nil {
		return dto.ExportOutput{}, err
	}
	payload, err := domain.EncodeState(doc, input.Format)
	if err != nil {
		return dto.ExportOutput{}, err
	}
	format := input.Format
	if format == "" {
		format = domain.FormatJSON
	}
	return dto.ExportOutput{Format: format, Payload: payload}, nil
}

func (i *Interactor) Import(ctx context.Context, input dto.ImportInput) (dto.ImportOutput, error) {
	doc, err := domain.DecodeState(input.Payload)
	if err != nil {
		return dto.ImportOutput{}, err
	}
	return i.svc.Import(ctx, doc)
}
