package dto

import "time"

type RuleOutput struct {
	ID        int    `json:"id"`
	Domain    string `json:"domain"`
	URLFilter string `json:"urlFilter"`
	Action    string `json:"action"`
}

type StatusOutput struct {
	ManualEnabled bool         `json:"manualEnabled"`
	FocusActive   bool         `json:"focusActive"`
	Active        bool         `json:"active"`
	BlockedSites  []string     `json:"blockedSites"`
	Rules         []RuleOutput `json:"rules"`
	Backend       string       `json:"backend"`
	LastError     string       `json:"lastError,omitempty"`
	AppliedAt     time.Time    `json:"appliedAt"`
}

type DecisionOutput struct {
	URL         string `json:"url"`
	Host        string `json:"host"`
	Decision    string `json:"decision"`
	RedirectURL string `json:"redirectUrl,omitempty"`
}
