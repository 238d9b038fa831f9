package out

import (
	"context"

	"webtally/internal/modules/blocking/domain"
)

// RuleInstaller applies rule sets to the enforcement backend.
type RuleInstaller interface {
	Name() string
	// Replace swaps the installed set for rules in one step. An empty set
	// clears the backend. On error the previous set stays installed.
	Replace(ctx context.Context, rules domain.RuleSet) error
	Installed(ctx context.Context) (domain.RuleSet, error)
	Close() error
}

type StateStore interface {
	LoadManual(ctx context.Context) (bool, error)
	SaveManual(ctx context.Context, enabled bool) error
}
