package dto

import "time"

type StartInput struct {
	Minutes int
}

// RestoreInput is a session carried in from a state document.
type RestoreInput struct {
	StartedAt       time.Time
	EndTime         time.Time
	DurationMinutes int
}

type SessionOutput struct {
	Active           bool      `json:"active"`
	StartedAt        time.Time `json:"startedAt"`
	EndTime          time.Time `json:"endTime"`
	DurationMinutes  int       `json:"durationMinutes"`
	RemainingSeconds int64     `json:"remainingSeconds"`
}

type TickOutput struct {
	Ended   bool          `json:"ended"`
	Session SessionOutput `json:"session"`
}
