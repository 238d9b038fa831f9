package domain_test

import (
	"errors"
	"testing"
	"time"

	"webtally/internal/modules/report/domain"
	apperrors "webtally/internal/platform/errors"
)

var (
	productive  = []string{"github.com", "stackoverflow.com", "docs.google.com"}
	distracting = []string{"facebook.com", "twitter.com", "youtube.com", "reddit.com"}
)

func TestGenerateScoresProductiveShare(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	report := domain.Generate("2024-03-01", map[string]int64{"github.com": 600, "youtube.com": 300}, productive, distracting, at)

	if report.TotalTime != 900 || report.ProductiveTime != 600 || report.DistractingTime != 300 || report.ProductivityScore != 67 {
		t.Fatalf("unexpected totals: %+v", report)
	}
	if len(report.TopSites) != 2 || report.TopSites[0].Domain != "github.com" || report.TopSites[0].Category != "productive" {
		t.Fatalf("unexpected top sites: %+v", report.TopSites)
	}
	if got := domain.Summary(report); got != "Yesterday: 15m total, 67% productive" {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestGenerateClassifiesSubdomainsOneWay(t *testing.T) {
	t.Parallel()
	day := map[string]int64{
		"gist.github.com": 100,
		"m.youtube.com":   50,
		"hub.com":         25,
	}
	report := domain.Generate("2024-03-01", day, productive, distracting, time.Now())
	if report.ProductiveTime != 100 || report.DistractingTime != 50 {
		t.Fatalf("unexpected classification: %+v", report)
	}
	if report.TopSites[2].Category != "neutral" {
		t.Fatalf("list entry containing the domain should not match: %+v", report.TopSites[2])
	}
}

func TestGenerateEmptyDayAndTopLimit(t *testing.T) {
	t.Parallel()
	empty := domain.Generate("2024-03-01", nil, productive, distracting, time.Now())
	if empty.TotalTime != 0 || empty.ProductivityScore != 0 || len(empty.TopSites) != 0 {
		t.Fatalf("unexpected empty report: %+v", empty)
	}

	day := map[string]int64{}
	for i := 0; i < 15; i++ {
		day[string(rune('a'+i))+".example"] = int64(i + 1)
	}
	report := domain.Generate("2024-03-01", day, nil, nil, time.Now())
	if len(report.TopSites) != domain.TopSiteLimit {
		t.Fatalf("expected %d top sites, got %d", domain.TopSiteLimit, len(report.TopSites))
	}
	if report.TopSites[0].TimeSpent != 15 {
		t.Fatalf("top sites not sorted: %+v", report.TopSites[0])
	}
	if len(report.SiteData) != 15 {
		t.Fatalf("site data should keep every domain")
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()
	cases := map[int64]string{0: "0m", 59: "0m", 900: "15m", 3600: "1h 0m", 7500: "2h 5m"}
	for seconds, want := range cases {
		if got := domain.FormatDuration(seconds); got != want {
			t.Fatalf("%d: expected %q, got %q", seconds, want, got)
		}
	}
}

func TestMidnightHelpers(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("UTC+2", 2*3600)
	now := time.Date(2024, 3, 31, 23, 59, 0, 0, loc)
	if got := domain.NextMidnight(now); !got.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, loc)) {
		t.Fatalf("unexpected next midnight: %s", got)
	}
	if got := domain.PreviousDate(time.Date(2024, 3, 1, 0, 0, 1, 0, loc)); got != "2024-02-29" {
		t.Fatalf("unexpected previous date: %s", got)
	}
	if err := domain.ValidateDate("2024-13-01"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
