package domain

import (
	"fmt"
	"time"

	apperrors "webtally/internal/platform/errors"
)

const (
	MinMinutes = 1
	MaxMinutes = 180
)

// Session is the focus state. The zero value is Idle.
type Session struct {
	Active          bool      `json:"active"`
	StartedAt       time.Time `json:"startedAt"`
	EndTime         time.Time `json:"endTime"`
	DurationMinutes int       `json:"duration"`
}

func ValidateMinutes(minutes int) error {
	if minutes < MinMinutes || minutes > MaxMinutes {
		return fmt.Errorf("%w: duration must be between %d and %d minutes, got %d", apperrors.ErrInvalidInput, MinMinutes, MaxMinutes, minutes)
	}
	return nil
}

func NewSession(minutes int, now time.Time) (Session, error) {
	if err := ValidateMinutes(minutes); err != nil {
		return Session{}, err
	}
	return Session{
		Active:          true,
		StartedAt:       now,
		EndTime:         now.Add(time.Duration(minutes) * time.Minute),
		DurationMinutes: minutes,
	}, nil
}

func (s Session) Expired(now time.Time) bool {
	return s.Active && !now.Before(s.EndTime)
}

func (s Session) Remaining(now time.Time) time.Duration {
	if !s.Active || !now.Before(s.EndTime) {
		return 0
	}
	return s.EndTime.Sub(now)
}
