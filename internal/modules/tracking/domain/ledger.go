package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "webtally/internal/platform/errors"
)

const DateLayout = "2006-01-02"

// DateKey is the local calendar day of t, formatted so that lexical order is
// chronological order.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

func ParseDateKey(raw string) (string, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: date %q must be YYYY-MM-DD", apperrors.ErrInvalidInput, raw)
	}
	return parsed.Format(DateLayout), nil
}

// Ledger holds active seconds per day per domain.
type Ledger map[string]map[string]int64

// Record adds seconds to a cell. Values only ever grow through Record.
func (l Ledger) Record(date, domain string, seconds int64) error {
	if strings.TrimSpace(date) == "" || strings.TrimSpace(domain) == "" {
		return fmt.Errorf("%w: date and domain are required", apperrors.ErrInvalidInput)
	}
	if seconds < 0 {
		return fmt.Errorf("%w: negative delta %d for %s", apperrors.ErrInvalidInput, seconds, domain)
	}
	day, ok := l[date]
	if !ok {
		day = map[string]int64{}
		l[date] = day
	}
	day[domain] += seconds
	return nil
}

// Merge raises a cell to seconds when that is larger. It reports whether the
// cell changed.
func (l Ledger) Merge(date, domain string, seconds int64) bool {
	if date == "" || domain == "" || seconds < 0 {
		return false
	}
	day, ok := l[date]
	if !ok {
		day = map[string]int64{}
		l[date] = day
	}
	current, exists := day[domain]
	if exists && current >= seconds {
		return false
	}
	day[domain] = seconds
	return true
}

// MergeAll applies Merge for every cell of other and reports how many cells
// changed.
func (l Ledger) MergeAll(other Ledger) int {
	changed := 0
	for date, day := range other {
		for domain, seconds := range day {
			if l.Merge(date, domain, seconds) {
				changed++
			}
		}
	}
	return changed
}

// Day returns a copy of one day's slice.
func (l Ledger) Day(date string) map[string]int64 {
	out := map[string]int64{}
	for domain, seconds := range l[date] {
		out[domain] = seconds
	}
	return out
}

func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for date := range l {
		out[date] = l.Day(date)
	}
	return out
}

// Dates lists the recorded days in chronological order.
func (l Ledger) Dates() []string {
	dates := make([]string, 0, len(l))
	for date := range l {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

func (l Ledger) Total(date string) int64 {
	var total int64
	for _, seconds := range l[date] {
		total += seconds
	}
	return total
}
