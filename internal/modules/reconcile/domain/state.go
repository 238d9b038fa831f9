package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "webtally/internal/platform/errors"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type FocusSession struct {
	Active          bool      `json:"active" yaml:"active"`
	StartedAt       time.Time `json:"startedAt" yaml:"startedAt"`
	EndTime         time.Time `json:"endTime" yaml:"endTime"`
	DurationMinutes int       `json:"duration" yaml:"duration"`
}

// StateDocument is the full local state as exported and imported.
type StateDocument struct {
	TimeLedger           TimeData             `json:"timeLedger" yaml:"timeLedger"`
	BlockedSites         []string             `json:"blockedSites" yaml:"blockedSites"`
	ProductiveSites      []string             `json:"productiveSites" yaml:"productiveSites"`
	DistractingSites     []string             `json:"distractingSites" yaml:"distractingSites"`
	PreferencesUpdatedAt map[string]time.Time `json:"preferencesUpdatedAt,omitempty" yaml:"preferencesUpdatedAt,omitempty"`
	BlockingEnabled      bool                 `json:"blockingEnabled" yaml:"blockingEnabled"`
	FocusSession         *FocusSession        `json:"focusSession,omitempty" yaml:"focusSession,omitempty"`
	LastSync             *time.Time           `json:"lastSync,omitempty" yaml:"lastSync,omitempty"`
	ExportDate           time.Time            `json:"exportDate" yaml:"exportDate"`
}

// Validate rejects documents that would put invalid values into the ledger.
func (d StateDocument) Validate() error {
	for date, domains := range d.TimeLedger {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return fmt.Errorf("%w: ledger date %q", apperrors.ErrInvalidInput, date)
		}
		for domain, seconds := range domains {
			if strings.TrimSpace(domain) == "" {
				return fmt.Errorf("%w: empty domain on %s", apperrors.ErrInvalidInput, date)
			}
			if seconds < 0 {
				return fmt.Errorf("%w: negative time for %s on %s", apperrors.ErrInvalidInput, domain, date)
			}
		}
	}
	return nil
}

func EncodeState(doc StateDocument, format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		payload, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode state: %w", err)
		}
		return payload, nil
	case FormatYAML, "yml":
		payload, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode state: %w", err)
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q (json|yaml)", apperrors.ErrInvalidInput, format)
	}
}

// DecodeState accepts either encoding; a leading '{' selects JSON.
func DecodeState(raw []byte) (StateDocument, error) {
	doc := StateDocument{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return StateDocument{}, fmt.Errorf("%w: empty state document", apperrors.ErrInvalidInput)
	}
	var err error
	if trimmed[0] == '{' {
		err = json.Unmarshal(trimmed, &doc)
	} else {
		err = yaml.Unmarshal(trimmed, &doc)
	}
	if err != nil {
		return StateDocument{}, fmt.Errorf("%w: decode state: %v", apperrors.ErrInvalidInput, err)
	}
	return doc, doc.Validate()
}
