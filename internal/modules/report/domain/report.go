package domain

import (
	"fmt"
	"math"
	"sort"
	"time"

	apperrors "webtally/internal/platform/errors"
	"webtally/internal/platform/hostmatch"
)

const (
	DateLayout   = "2006-01-02"
	TopSiteLimit = 10
	SummaryTitle = "Daily Productivity Report"
)

const (
	CategoryProductive  = "productive"
	CategoryDistracting = "distracting"
	CategoryNeutral     = "neutral"
)

type SiteStat struct {
	Domain    string `json:"domain"`
	TimeSpent int64  `json:"timeSpent"`
	Category  string `json:"category"`
}

type DailyReport struct {
	Date              string           `json:"date"`
	TotalTime         int64            `json:"totalTime"`
	ProductiveTime    int64            `json:"productiveTime"`
	DistractingTime   int64            `json:"distractingTime"`
	ProductivityScore int              `json:"productivityScore"`
	SiteData          map[string]int64 `json:"siteData"`
	TopSites          []SiteStat       `json:"topSites"`
	GeneratedAt       time.Time        `json:"generatedAt"`
	SyncedAt          time.Time        `json:"syncedAt,omitempty"`
}

// Version pins one generated revision of a day's report. Regenerating a day
// produces a new version.
type Version struct {
	Date        string
	GeneratedAt time.Time
}

func (r DailyReport) Version() Version {
	return Version{Date: r.Date, GeneratedAt: r.GeneratedAt}
}

func ValidateDate(raw string) error {
	if _, err := time.Parse(DateLayout, raw); err != nil {
		return fmt.Errorf("%w: date %q must be YYYY-MM-DD", apperrors.ErrInvalidInput, raw)
	}
	return nil
}

// Generate summarizes one ledger day. A domain counts as productive when a
// productive entry occurs inside it, checked before the distracting list.
func Generate(date string, day map[string]int64, productive, distracting []string, at time.Time) DailyReport {
	report := DailyReport{
		Date:        date,
		SiteData:    make(map[string]int64, len(day)),
		TopSites:    []SiteStat{},
		GeneratedAt: at,
	}
	stats := make([]SiteStat, 0, len(day))
	for domain, seconds := range day {
		category := classify(domain, productive, distracting)
		report.SiteData[domain] = seconds
		report.TotalTime += seconds
		switch category {
		case CategoryProductive:
			report.ProductiveTime += seconds
		case CategoryDistracting:
			report.DistractingTime += seconds
		}
		stats = append(stats, SiteStat{Domain: domain, TimeSpent: seconds, Category: category})
	}
	report.ProductivityScore = Score(report.ProductiveTime, report.TotalTime)
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].TimeSpent == stats[j].TimeSpent {
			return stats[i].Domain < stats[j].Domain
		}
		return stats[i].TimeSpent > stats[j].TimeSpent
	})
	if len(stats) > TopSiteLimit {
		stats = stats[:TopSiteLimit]
	}
	report.TopSites = append(report.TopSites, stats...)
	return report
}

// Score is the productive share of total as a rounded percentage.
func Score(productive, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(productive) / float64(total)))
}

func classify(domain string, productive, distracting []string) string {
	for _, site := range productive {
		if hostmatch.Within(domain, site) {
			return CategoryProductive
		}
	}
	for _, site := range distracting {
		if hostmatch.Within(domain, site) {
			return CategoryDistracting
		}
	}
	return CategoryNeutral
}

// FormatDuration renders seconds as "2h 5m" or "15m".
func FormatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func Summary(report DailyReport) string {
	return fmt.Sprintf("Yesterday: %s total, %d%% productive", FormatDuration(report.TotalTime), report.ProductivityScore)
}

// NextMidnight is the start of the day after now, in now's location.
func NextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}

// PreviousDate is the date key of the day before now.
func PreviousDate(now time.Time) string {
	y, m, d := now.Date()
	return time.Date(y, m, d-1, 12, 0, 0, 0, now.Location()).Format(DateLayout)
}
