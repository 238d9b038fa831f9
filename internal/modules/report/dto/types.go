package dto

import "time"

type SiteStat struct {
	Domain    string `json:"domain"`
	TimeSpent int64  `json:"timeSpent"`
	Category  string `json:"category"`
}

type ReportOutput struct {
	Date              string           `json:"date"`
	TotalTime         int64            `json:"totalTime"`
	ProductiveTime    int64            `json:"productiveTime"`
	DistractingTime   int64            `json:"distractingTime"`
	ProductivityScore int              `json:"productivityScore"`
	SiteData          map[string]int64 `json:"siteData"`
	TopSites          []SiteStat       `json:"topSites"`
	GeneratedAt       time.Time        `json:"generatedAt"`
	SyncedAt          time.Time        `json:"syncedAt,omitempty"`
	Summary           string           `json:"summary"`
	NotePath          string           `json:"notePath,omitempty"`
}

// ReportVersion names the exact generated report that was delivered.
type ReportVersion struct {
	Date        string    `json:"date"`
	GeneratedAt time.Time `json:"generatedAt"`
}

type MarkSyncedInput struct {
	Reports []ReportVersion
	At      time.Time
}
