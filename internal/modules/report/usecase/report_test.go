package usecase_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	reportadapter "webtally/internal/modules/report/adapter/out"
	"webtally/internal/modules/report/dto"
	reportin "webtally/internal/modules/report/port/in"
	"webtally/internal/modules/report/service"
	"webtally/internal/modules/report/usecase"
	apperrors "webtally/internal/platform/errors"
	"webtally/internal/platform/scheduler"
	"webtally/internal/platform/sqlitedb"
)

type fakeLedger map[string]map[string]int64

func (f fakeLedger) Day(_ context.Context, date string) (map[string]int64, error) {
	return f[date], nil
}

type fakeLists struct{}

func (fakeLists) Lists(context.Context) ([]string, []string, error) {
	return []string{"github.com", "stackoverflow.com"}, []string{"youtube.com", "reddit.com"}, nil
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) Notify(_ context.Context, _, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

func newReports(t *testing.T, ledger fakeLedger, now time.Time) (reportin.Usecase, *fakeNotifier, string) {
	t.Helper()
	home := t.TempDir()
	db, err := sqlitedb.Open(filepath.Join(home, "webtally.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	store, err := reportadapter.NewSQLiteReportStore(db)
	if err != nil {
		t.Fatalf("report store: %v", err)
	}
	notifier := &fakeNotifier{}
	reportsDir := filepath.Join(home, "reports")
	svc := service.NewReportService(ledger, fakeLists{}, store, reportadapter.NewMarkdownNoteWriter(reportsDir), notifier, scheduler.NewManual(now), hclog.NewNullLogger())
	return usecase.NewInteractor(svc), notifier, reportsDir
}

func TestGenerateDailyReportsOnPreviousDay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ledger := fakeLedger{
		"2024-03-01": {"github.com": 600, "youtube.com": 300},
		"2024-03-02": {"reddit.com": 50},
	}
	uc, notifier, reportsDir := newReports(t, ledger, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))

	report, err := uc.GenerateDaily(ctx)
	if err != nil {
		t.Fatalf("generate daily: %v", err)
	}
	if report.Date != "2024-03-01" || report.TotalTime != 900 || report.ProductiveTime != 600 || report.DistractingTime != 300 || report.ProductivityScore != 67 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.NotePath != filepath.Join(reportsDir, "2024", "03", "01.md") {
		t.Fatalf("unexpected note path: %s", report.NotePath)
	}
	if len(notifier.messages) != 1 || notifier.messages[0] != "Yesterday: 15m total, 67% productive" {
		t.Fatalf("unexpected notifications: %v", notifier.messages)
	}

	pending, err := uc.Pending(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending report, got %d", len(pending))
	}
	delivered := dto.ReportVersion{Date: pending[0].Date, GeneratedAt: pending[0].GeneratedAt}
	if err := uc.MarkSynced(ctx, dto.MarkSyncedInput{Reports: []dto.ReportVersion{delivered}}); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	pending, err = uc.Pending(ctx)
	if err != nil || len(pending) != 0 {
		t.Fatalf("expected no pending reports: %v %v", pending, err)
	}
}

func TestGenerateIsIdempotentForSameDay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ledger := fakeLedger{"2024-03-01": {"github.com": 600}}
	uc, notifier, _ := newReports(t, ledger, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC))

	for i := 0; i < 2; i++ {
		if _, err := uc.Generate(ctx, "2024-03-01"); err != nil {
			t.Fatalf("generate: %v", err)
		}
	}
	recent, err := uc.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 || recent[0].ProductivityScore != 100 {
		t.Fatalf("unexpected recent reports: %+v", recent)
	}
	if len(notifier.messages) != 0 {
		t.Fatalf("on-demand generation should not notify")
	}
}

func TestGenerateRejectsBadDate(t *testing.T) {
	t.Parallel()
	uc, _, _ := newReports(t, fakeLedger{}, time.Now())
	if _, err := uc.Generate(context.Background(), "yesterday"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := uc.Get(context.Background(), "2024-01-01"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
