package dto

import "time"

// TimeData is the wire shape of the ledger: date -> domain -> seconds.
type TimeData map[string]map[string]int64

type EventInput struct {
	ContextID string
	Type      string
	URL       string
}

type DomainTime struct {
	Domain  string `json:"domain"`
	Seconds int64  `json:"seconds"`
}

type DayOutput struct {
	Date    string       `json:"date"`
	Total   int64        `json:"total"`
	Domains []DomainTime `json:"domains"`
}

type MergeOutput struct {
	Changed int `json:"changed"`
}

type ContextOutput struct {
	ID             string    `json:"id"`
	Domain         string    `json:"domain"`
	Active         bool      `json:"active"`
	Visible        bool      `json:"visible"`
	LastActivityAt time.Time `json:"lastActivityAt"`
}

type EmitOutput struct {
	Samples int `json:"samples"`
}
