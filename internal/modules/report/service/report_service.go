package service

import (
	"context"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"webtally/internal/modules/report/domain"
	reportout "webtally/internal/modules/report/port/out"
	"webtally/internal/platform/clock"
)

type ReportService struct {
	ledger   reportout.LedgerReader
	lists    reportout.ListSource
	store    reportout.ReportStore
	notes    reportout.NoteWriter
	notifier reportout.Notifier
	clock    clock.Clock
	logger   hclog.Logger
}

func NewReportService(
	ledger reportout.LedgerReader,
	lists reportout.ListSource,
	store reportout.ReportStore,
	notes reportout.NoteWriter,
	notifier reportout.Notifier,
	clk clock.Clock,
	logger hclog.Logger,
) *ReportService {
	return &ReportService{
		ledger:   ledger,
		lists:    lists,
		store:    store,
		notes:    notes,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
	}
}

// Generate builds and stores the report for date, replacing any earlier
// report for the same day. The note path is empty when writing the note
// failed.
func (s *ReportService) Generate(ctx context.Context, date string) (domain.DailyReport, string, error) {
	if err := domain.ValidateDate(date); err != nil {
		return domain.DailyReport{}, "", err
	}
	day, err := s.ledger.Day(ctx, date)
	if err != nil {
		return domain.DailyReport{}, "", err
	}
	productive, distracting, err := s.lists.Lists(ctx)
	if err != nil {
		return domain.DailyReport{}, "", err
	}
	report := domain.Generate(date, day, productive, distracting, s.clock.Now())
	if err := s.store.Save(ctx, report); err != nil {
		return domain.DailyReport{}, "", err
	}
	path := ""
	if s.notes != nil {
		path, err = s.notes.Write(ctx, report)
		if err != nil {
			s.logger.Warn("write report note failed", "date", date, "error", err)
			path = ""
		}
	}
	s.logger.Info("daily report generated", "date", date, "total", report.TotalTime, "score", report.ProductivityScore)
	return report, path, nil
}

func (s *ReportService) GenerateDaily(ctx context.Context) (domain.DailyReport, string, error) {
	report, path, err := s.Generate(ctx, domain.PreviousDate(s.clock.Now()))
	if err != nil {
		return domain.DailyReport{}, "", err
	}
	if err := s.notifier.Notify(ctx, domain.SummaryTitle, domain.Summary(report)); err != nil {
		s.logger.Warn("report notification failed", "error", err)
	}
	return report, path, nil
}

func (s *ReportService) Get(ctx context.Context, date string) (domain.DailyReport, error) {
	if err := domain.ValidateDate(date); err != nil {
		return domain.DailyReport{}, err
	}
	return s.store.Get(ctx, date)
}

func (s *ReportService) Recent(ctx context.Context, limit int) ([]domain.DailyReport, error) {
	if limit <= 0 {
		limit = 7
	}
	return s.store.Recent(ctx, limit)
}

func (s *ReportService) Pending(ctx context.Context) ([]domain.DailyReport, error) {
	return s.store.Pending(ctx)
}

func (s *ReportService) MarkSynced(ctx context.Context, versions []domain.Version, at time.Time) error {
	if len(versions) == 0 {
		return nil
	}
	if at.IsZero() {
		at = s.clock.Now()
	}
	return s.store.MarkSynced(ctx, versions, at)
}
