package domain

import "time"

// TimeData is a ledger copy: date -> domain -> seconds.
type TimeData map[string]map[string]int64

type List struct {
	Sites     []string  `json:"sites" yaml:"sites"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

type Lists struct {
	Productive  List `json:"productive" yaml:"productive"`
	Distracting List `json:"distracting" yaml:"distracting"`
	Blocked     List `json:"blocked" yaml:"blocked"`
}

// Named returns the lists keyed by their preference names.
func (l Lists) Named() map[string]List {
	return map[string]List{
		"productive":  l.Productive,
		"distracting": l.Distracting,
		"blocked":     l.Blocked,
	}
}

type SiteStat struct {
	Domain    string `json:"domain"`
	TimeSpent int64  `json:"timeSpent"`
	Category  string `json:"category"`
}

type Report struct {
	Date              string           `json:"date"`
	TotalTime         int64            `json:"totalTime"`
	ProductiveTime    int64            `json:"productiveTime"`
	DistractingTime   int64            `json:"distractingTime"`
	ProductivityScore int              `json:"productivityScore"`
	SiteData          map[string]int64 `json:"siteData"`
	TopSites          []SiteStat       `json:"topSites"`
	GeneratedAt       time.Time        `json:"generatedAt"`
}

// ReportVersion pins the generated revision a sync delivered.
type ReportVersion struct {
	Date        string
	GeneratedAt time.Time
}

func (r Report) Version() ReportVersion {
	return ReportVersion{Date: r.Date, GeneratedAt: r.GeneratedAt}
}

// Envelope is everything one sync pushes to the remote store.
type Envelope struct {
	Owner           string
	TimeData        TimeData
	Preferences     Lists
	Reports         []Report
	ClientTimestamp time.Time
}

func (e Envelope) ReportVersions() []ReportVersion {
	versions := make([]ReportVersion, 0, len(e.Reports))
	for _, report := range e.Reports {
		versions = append(versions, report.Version())
	}
	return versions
}

// Response is the remote's merged view. Preferences is nil when the remote
// holds no lists for the owner.
type Response struct {
	TimeData    TimeData
	Preferences *Lists
	Timestamp   time.Time
}

// Plan is the local change set a sync response implies.
type Plan struct {
	Ledger TimeData
	Lists  map[string]List
}

func (p Plan) Empty() bool {
	return len(p.Ledger) == 0 && len(p.Lists) == 0
}

// PlanCommit compares the remote response with current local state. Ledger
// cells are taken only where the remote value is larger; a list is replaced
// only when the remote copy is strictly newer.
func PlanCommit(ledger TimeData, lists Lists, response Response) Plan {
	plan := Plan{Ledger: TimeData{}, Lists: map[string]List{}}
	for date, domains := range response.TimeData {
		for domain, seconds := range domains {
			if seconds <= ledger[date][domain] {
				continue
			}
			if plan.Ledger[date] == nil {
				plan.Ledger[date] = map[string]int64{}
			}
			plan.Ledger[date][domain] = seconds
		}
	}
	if response.Preferences == nil {
		return plan
	}
	local := lists.Named()
	for name, remote := range response.Preferences.Named() {
		current := local[name]
		if !remote.UpdatedAt.After(current.UpdatedAt) {
			continue
		}
		plan.Lists[name] = List{Sites: append([]string{}, remote.Sites...), UpdatedAt: remote.UpdatedAt}
	}
	return plan
}

// MergeMax folds b into a copy of a by per-cell maximum.
func MergeMax(a, b TimeData) TimeData {
	out := TimeData{}
	for _, src := range []TimeData{a, b} {
		for date, domains := range src {
			if out[date] == nil {
				out[date] = map[string]int64{}
			}
			for domain, seconds := range domains {
				if seconds > out[date][domain] {
					out[date][domain] = seconds
				}
			}
		}
	}
	return out
}

// NeedsSync reports whether the last successful sync is missing or older
// than staleAfter.
func NeedsSync(lastSync, now time.Time, staleAfter time.Duration) bool {
	if lastSync.IsZero() {
		return true
	}
	return now.Sub(lastSync) > staleAfter
}
