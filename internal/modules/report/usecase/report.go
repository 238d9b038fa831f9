package usecase

import (
	"context"

	"webtally/internal/modules/report/domain"
	"webtally/internal/modules/report/dto"
	reportin "webtally/internal/modules/report/port/in"
	"webtally/internal/modules/report/service"
)

type Interactor struct {
	svc *service.ReportService
}

func NewInteractor(svc *service.ReportService) reportin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) GenerateDaily(ctx context.Context) (dto.ReportOutput, error) {
	report, path, err := i.svc.GenerateDaily(ctx)
	if err != nil {
		return dto.ReportOutput{}, err
	}
	out := toOutput(report)
	out.NotePath = path
	return out, nil
}

func (i *Interactor) Generate(ctx context.Context, date string) (dto.ReportOutput, error) {
	report, path, err := i.svc.Generate(ctx, date)
	if err != nil {
		return dto.ReportOutput{}, err
	}
	out := toOutput(report)
	out.NotePath = path
	return out, nil
}

func (i *Interactor) Get(ctx context.Context, date string) (dto.ReportOutput, error) {
	report, err := i.svc.Get(ctx, date)
	if err != nil {
		return dto.ReportOutput{}, err
	}
	return toOutput(report), nil
}

func (i *Interactor) Recent(ctx context.Context, limit int) ([]dto.ReportOutput, error) {
	reports, err := i.svc.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toOutputs(reports), nil
}

func (i *Interactor) Pending(ctx context.Context) ([]dto.ReportOutput, error) {
	reports, err := i.svc.Pending(ctx)
	if err != nil {
		return nil, err
	}
	return toOutputs(reports), nil
}

func (i *Interactor) MarkSynced(ctx context.Context, input dto.MarkSyncedInput) error {
	versions := make([]domain.Version, 0, len(input.Reports))
	for _, report := range input.Reports {
		versions = append(versions, domain.Version{Date: report.Date, GeneratedAt: report.GeneratedAt})
	}
	return i.svc.MarkSynced(ctx, versions, input.At)
}

func toOutputs(reports []domain.DailyReport) []dto.ReportOutput {
	out := make([]dto.ReportOutput, 0, len(reports))
	for _, report := range reports {
		out = append(out, toOutput(report))
	}
	return out
}

func toOutput(report domain.DailyReport) dto.ReportOutput {
	top := make([]dto.SiteStat, 0, len(report.TopSites))
	for _, site := range report.TopSites {
		top = append(top, dto.SiteStat{Domain: site.Domain, TimeSpent: site.TimeSpent, Category: site.Category})
	}
	siteData := make(map[string]int64, len(report.SiteData))
	for site, seconds := range report.SiteData {
		siteData[site] = seconds
	}
	return dto.ReportOutput{
		Date:              report.Date,
		TotalTime:         report.TotalTime,
		ProductiveTime:    report.ProductiveTime,
		DistractingTime:   report.DistractingTime,
		ProductivityScore: report.ProductivityScore,
		SiteData:          siteData,
		TopSites:          top,
		GeneratedAt:       report.GeneratedAt,
		SyncedAt:          report.SyncedAt,
		Summary:           domain.Summary(report),
	}
}
