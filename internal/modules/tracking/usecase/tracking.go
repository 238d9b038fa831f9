package usecase

import (
	"context"
	"sort"

	"webtally/internal/modules/tracking/domain"
	"webtally/internal/modules/tracking/dto"
	trackingin "webtally/internal/modules/tracking/port/in"
	"webtally/internal/modules/tracking/service"
)

type Interactor struct {
	ledger   *service.LedgerService
	detector *service.DetectorService
}

func NewInteractor(ledger *service.LedgerService, detector *service.DetectorService) trackingin.Usecase {
	return &Interactor{ledger: ledger, detector: detector}
}

func (i *Interactor) Load(ctx context.Context) error {
	return i.ledger.Load(ctx)
}

func (i *Interactor) HandleEvent(ctx context.Context, input dto.EventInput) error {
	_, err := i.detector.Observe(ctx, input.ContextID, domain.Event{Type: domain.EventType(input.Type), URL: input.URL})
	return err
}

func (i *Interactor) CheckIdle(context.Context) error {
	i.detector.CheckIdle()
	return nil
}

func (i *Interactor) EmitActive(ctx context.Context) (dto.EmitOutput, error) {
	n, err := i.detector.Emit(ctx)
	if err != nil {
		return dto.EmitOutput{}, err
	}
	return dto.EmitOutput{Samples: n}, nil
}

func (i *Interactor) Shutdown(ctx context.Context) error {
	if _, err := i.detector.Teardown(ctx); err != nil {
		return err
	}
	return i.ledger.Flush(ctx)
}

func (i *Interactor) Today(ctx context.Context) (dto.DayOutput, error) {
	return i.Day(ctx, i.ledger.Today())
}

func (i *Interactor) Day(_ context.Context, date string) (dto.DayOutput, error) {
	key, err := domain.ParseDateKey(date)
	if err != nil {
		return dto.DayOutput{}, err
	}
	day := i.ledger.Day(key)
	out := dto.DayOutput{Date: key, Domains: make([]dto.DomainTime, 0, len(day))}
	for name, seconds := range day {
		out.Total += seconds
		out.Domains = append(out.Domains, dto.DomainTime{Domain: name, Seconds: seconds})
	}
	sort.Slice(out.Domains, func(a, b int) bool {
		if out.Domains[a].Seconds != out.Domains[b].Seconds {
			return out.Domains[a].Seconds > out.Domains[b].Seconds
		}
		return out.Domains[a].Domain < out.Domains[b].Domain
	})
	return out, nil
}

func (i *Interactor) Days(context.Context) ([]string, error) {
	return i.ledger.Dates(), nil
}

func (i *Interactor) Snapshot(context.Context) (dto.TimeData, error) {
	return dto.TimeData(i.ledger.Snapshot()), nil
}

func (i *Interactor) Merge(ctx context.Context, incoming dto.TimeData) (dto.MergeOutput, error) {
	return dto.MergeOutput{Changed: i.ledger.Merge(ctx, domain.Ledger(incoming))}, nil
}

func (i *Interactor) Contexts(context.Context) ([]dto.ContextOutput, error) {
	contexts := i.detector.Contexts()
	out := make([]dto.ContextOutput, 0, len(contexts))
	for _, c := range contexts {
		out = append(out, dto.ContextOutput{
			ID:             c.ID,
			Domain:         c.Domain,
			Active:         c.Active,
			Visible:        c.Visible,
			LastActivityAt: c.LastActivityAt,
		})
	}
	return out, nil
}
