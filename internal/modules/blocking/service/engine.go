package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"webtally/internal/modules/blocking/domain"
	blockingout "webtally/internal/modules/blocking/port/out"
	"webtally/internal/platform/clock"
	apperrors "webtally/internal/platform/errors"
)

// Engine derives the rule set from the blocked list and blocking state and
// keeps the backend in sync with it. Only Decide may be called concurrently
// with the other methods.
type Engine struct {
	installer   blockingout.RuleInstaller
	store       blockingout.StateStore
	clock       clock.Clock
	logger      hclog.Logger
	redirectURL string

	blocked   []string
	state     domain.State
	installed domain.RuleSet
	lastErr   error
	appliedAt time.Time
	applies   int

	snapshot atomic.Pointer[domain.Snapshot]
}

func NewEngine(installer blockingout.RuleInstaller, store blockingout.StateStore, clk clock.Clock, logger hclog.Logger, redirectURL string) *Engine {
	e := &Engine{
		installer:   installer,
		store:       store,
		clock:       clk,
		logger:      logger,
		redirectURL: redirectURL,
	}
	e.snapshot.Store(&domain.Snapshot{RedirectURL: redirectURL})
	return e
}

// Init restores the manual toggle and performs the initial recompute.
func (e *Engine) Init(ctx context.Context) error {
	manual, err := e.store.LoadManual(ctx)
	if err != nil {
		return err
	}
	e.state.ManualEnabled = manual
	if err := e.Recompute(ctx); err != nil {
		e.logger.Warn("initial rule install failed", "error", err)
	}
	return nil
}

func (e *Engine) SetBlockedDomains(ctx context.Context, sites []string) error {
	e.blocked = append([]string(nil), sites...)
	return e.Recompute(ctx)
}

func (e *Engine) SetManual(ctx context.Context, enabled bool) error {
	e.state.ManualEnabled = enabled
	if err := e.store.SaveManual(ctx, enabled); err != nil {
		e.logger.Warn("persist blocking toggle failed", "error", err)
	}
	return e.Recompute(ctx)
}

// SetFocusActive(false) leaves the rules alone while manual blocking is on.
func (e *Engine) SetFocusActive(ctx context.Context, active bool) error {
	e.state.FocusActive = active
	if !active && e.state.ManualEnabled {
		return nil
	}
	return e.Recompute(ctx)
}

// Recompute replaces the backend's rule set with the desired one. The
// decision snapshot is swapped only after the replace succeeds; on failure
// the backend and the snapshot both keep the previous set until the next
// trigger.
func (e *Engine) Recompute(ctx context.Context) error {
	desired := domain.RuleSet{Rules: []domain.Rule{}}
	if e.state.Active() {
		desired = domain.BuildRuleSet(e.blocked, e.redirectURL)
	}
	if err := e.apply(ctx, desired); err != nil {
		e.lastErr = err
		e.logger.Error("rule install failed", "backend", e.installer.Name(), "error", err)
		return err
	}
	e.installed = desired
	e.lastErr = nil
	e.appliedAt = e.clock.Now()
	e.applies++
	e.snapshot.Store(&domain.Snapshot{
		Active:      e.state.Active(),
		Domains:     desired.Domains(),
		RedirectURL: e.redirectURL,
	})
	e.logger.Debug("rules applied", "active", e.state.Active(), "rules", len(desired.Rules))
	return nil
}

func (e *Engine) apply(ctx context.Context, desired domain.RuleSet) error {
	if err := e.installer.Replace(ctx, desired); err != nil {
		return fmt.Errorf("%w: replace: %v", apperrors.ErrRuleInstall, err)
	}
	return nil
}

func (e *Engine) Decide(rawURL string) domain.Decision {
	return e.snapshot.Load().Decide(rawURL)
}

func (e *Engine) Snapshot() domain.Snapshot {
	return *e.snapshot.Load()
}

func (e *Engine) State() domain.State {
	return e.state
}

func (e *Engine) Blocked() []string {
	return append([]string{}, e.blocked...)
}

func (e *Engine) Installed() domain.RuleSet {
	return e.installed
}

func (e *Engine) LastError() error {
	return e.lastErr
}

func (e *Engine) AppliedAt() time.Time {
	return e.appliedAt
}

// Applies counts successful recomputes.
func (e *Engine) Applies() int {
	return e.applies
}

func (e *Engine) BackendName() string {
	return e.installer.Name()
}

func (e *Engine) Close() error {
	return e.installer.Close()
}
