package usecase

import (
	"context"

	hclog "github.com/hashicorp/go-hclog"

	"webtally/internal/modules/preferences/domain"
	"webtally/internal/modules/preferences/dto"
	prefsin "webtally/internal/modules/preferences/port/in"
	prefsout "webtally/internal/modules/preferences/port/out"
	"webtally/internal/modules/preferences/service"
	"webtally/internal/platform/hostmatch"
)

type Interactor struct {
	svc    *service.PreferencesService
	sink   prefsout.BlockListSink
	logger hclog.Logger
}

func NewInteractor(svc *service.PreferencesService, sink prefsout.BlockListSink, logger hclog.Logger) prefsin.Usecase {
	return &Interactor{svc: svc, sink: sink, logger: logger}
}

func (i *Interactor) Load(ctx context.Context) error {
	if err := i.svc.Load(ctx); err != nil {
		return err
	}
	i.publishBlocked(ctx)
	return nil
}

func (i *Interactor) Get(context.Context) (dto.PreferencesOutput, error) {
	prefs := i.svc.Get()
	return dto.PreferencesOutput{
		Productive:  toListOutput(domain.ListProductive, prefs.Productive),
		Distracting: toListOutput(domain.ListDistracting, prefs.Distracting),
		Blocked:     toListOutput(domain.ListBlocked, prefs.Blocked),
	}, nil
}

func (i *Interactor) AddSite(ctx context.Context, input dto.SiteInput) (dto.ListOutput, error) {
	name, err := domain.ParseListName(input.List)
	if err != nil {
		return dto.ListOutput{}, err
	}
	list, changed, err := i.svc.Add(ctx, name, input.Site)
	if err != nil {
		return dto.ListOutput{}, err
	}
	i.afterChange(ctx, name, changed)
	return toListOutput(name, list), nil
}

func (i *Interactor) RemoveSite(ctx context.Context, input dto.SiteInput) (dto.ListOutput, error) {
	name, err := domain.ParseListName(input.List)
	if err != nil {
		return dto.ListOutput{}, err
	}
	list, changed, err := i.svc.Remove(ctx, name, input.Site)
	if err != nil {
		return dto.ListOutput{}, err
	}
	i.afterChange(ctx, name, changed)
	return toListOutput(name, list), nil
}

func (i *Interactor) ReplaceList(ctx context.Context, input dto.ReplaceListInput) (dto.ListOutput, error) {
	name, err := domain.ParseListName(input.List)
	if err != nil {
		return dto.ListOutput{}, err
	}
	list, changed, err := i.svc.Replace(ctx, name, domain.List{Sites: input.Sites, UpdatedAt: input.UpdatedAt})
	if err != nil {
		return dto.ListOutput{}, err
	}
	i.afterChange(ctx, name, changed)
	return toListOutput(name, list), nil
}

func (i *Interactor) Classify(_ context.Context, raw string) (dto.ClassifyOutput, error) {
	host, ok := hostmatch.Host(raw)
	if !ok {
		host = hostmatch.Normalize(raw)
	}
	prefs := i.svc.Get()
	category := domain.Classify(host, prefs.Productive.Sites, prefs.Distracting.Sites)
	return dto.ClassifyOutput{Domain: host, Category: string(category)}, nil
}

func (i *Interactor) afterChange(ctx context.Context, name domain.ListName, changed bool) {
	if changed && name == domain.ListBlocked {
		i.publishBlocked(ctx)
	}
}

// publishBlocked failures are logged only; the blocking engine retries the
// install on its next trigger.
func (i *Interactor) publishBlocked(ctx context.Context) {
	if i.sink == nil {
		return
	}
	if err := i.sink.SetBlockedDomains(ctx, i.svc.Get().Blocked.Sites); err != nil {
		i.logger.Warn("apply blocked list failed", "error", err)
	}
}

func toListOutput(name domain.ListName, list domain.List) dto.ListOutput {
	sites := append([]string{}, list.Sites...)
	return dto.ListOutput{Name: string(name), Sites: sites, UpdatedAt: list.UpdatedAt}
}
