package usecase

import (
	"context"

	"webtally/internal/modules/blocking/domain"
	"webtally/internal/modules/blocking/dto"
	blockingin "webtally/internal/modules/blocking/port/in"
	"webtally/internal/modules/blocking/service"
	"webtally/internal/platform/hostmatch"
)

// Interactor reports install failures through StatusOutput.LastError rather
// than as errors: a failed install is retried on the next trigger.
type Interactor struct {
	engine *service.Engine
}

func NewInteractor(engine *service.Engine) blockingin.Usecase {
	return &Interactor{engine: engine}
}

func (i *Interactor) Init(ctx context.Context) error {
	return i.engine.Init(ctx)
}

func (i *Interactor) SetBlockedDomains(ctx context.Context, sites []string) (dto.StatusOutput, error) {
	_ = i.engine.SetBlockedDomains(ctx, sites)
	return i.Status(ctx)
}

func (i *Interactor) SetManual(ctx context.Context, enabled bool) (dto.StatusOutput, error) {
	_ = i.engine.SetManual(ctx, enabled)
	return i.Status(ctx)
}

func (i *Interactor) SetFocusActive(ctx context.Context, active bool) (dto.StatusOutput, error) {
	_ = i.engine.SetFocusActive(ctx, active)
	return i.Status(ctx)
}

func (i *Interactor) Recompute(ctx context.Context) (dto.StatusOutput, error) {
	_ = i.engine.Recompute(ctx)
	return i.Status(ctx)
}

func (i *Interactor) Status(context.Context) (dto.StatusOutput, error) {
	state := i.engine.State()
	installed := i.engine.Installed()
	out := dto.StatusOutput{
		ManualEnabled: state.ManualEnabled,
		FocusActive:   state.FocusActive,
		Active:        i.engine.Snapshot().Active,
		BlockedSites:  i.engine.Blocked(),
		Rules:         make([]dto.RuleOutput, 0, len(installed.Rules)),
		Backend:       i.engine.BackendName(),
		AppliedAt:     i.engine.AppliedAt(),
	}
	for _, rule := range installed.Rules {
		out.Rules = append(out.Rules, dto.RuleOutput{ID: rule.ID, Domain: rule.Domain, URLFilter: rule.URLFilter, Action: rule.Action})
	}
	if err := i.engine.LastError(); err != nil {
		out.LastError = err.Error()
	}
	return out, nil
}

func (i *Interactor) Decide(rawURL string) dto.DecisionOutput {
	host, _ := hostmatch.Host(rawURL)
	snapshot := i.engine.Snapshot()
	decision := snapshot.Decide(rawURL)
	out := dto.DecisionOutput{URL: rawURL, Host: host, Decision: string(decision)}
	if decision == domain.Block {
		out.RedirectURL = snapshot.RedirectURL
	}
	return out
}

func (i *Interactor) Close() error {
	return i.engine.Close()
}
