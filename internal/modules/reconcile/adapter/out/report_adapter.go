package out

import (
	"context"
	"time"

	"webtally/internal/modules/reconcile/domain"
	reconcileout "webtally/internal/modules/reconcile/port/out"
	reportdto "webtally/internal/modules/report/dto"
	reportin "webtally/internal/modules/report/port/in"
)

type ReportAdapter struct {
	reports reportin.Usecase
}

func NewReportAdapter(reports reportin.Usecase) reconcileout.ReportPort {
	return &ReportAdapter{reports: reports}
}

func (a *ReportAdapter) Pending(ctx context.Context) ([]domain.Report, error) {
	pending, err := a.reports.Pending(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Report, 0, len(pending))
	for _, report := range pending {
		out = append(out, ToReport(report))
	}
	return out, nil
}

func (a *ReportAdapter) MarkSynced(ctx context.Context, reports []domain.ReportVersion, at time.Time) error {
	return a.reports.MarkSynced(ctx, reportdto.MarkSyncedInput{Reports: ToVersions(reports), At: at})
}

func ToVersions(reports []domain.ReportVersion) []reportdto.ReportVersion {
	out := make([]reportdto.ReportVersion, 0, len(reports))
	for _, report := range reports {
		out = append(out, reportdto.ReportVersion{Date: report.Date, GeneratedAt: report.GeneratedAt})
	}
	return out
}

// ToReport converts a generated report to its sync payload.
func ToReport(report reportdto.ReportOutput) domain.Report {
	top := make([]domain.SiteStat, 0, len(report.TopSites))
	for _, site := range report.TopSites {
		top = append(top, domain.SiteStat{Domain: site.Domain, TimeSpent: site.TimeSpent, Category: site.Category})
	}
	return domain.Report{
		Date:              report.Date,
		TotalTime:         report.TotalTime,
		ProductiveTime:    report.ProductiveTime,
		DistractingTime:   report.DistractingTime,
		ProductivityScore: report.ProductivityScore,
		SiteData:          report.SiteData,
		TopSites:          top,
		GeneratedAt:       report.GeneratedAt,
	}
}
