package service

import (
	"context"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"webtally/internal/modules/focus/domain"
	focusout "webtally/internal/modules/focus/port/out"
	"webtally/internal/platform/clock"
	apperrors "webtally/internal/platform/errors"
)

const (
	startedTitle   = "Focus Session Started"
	startedMessage = "Distracting sites are now blocked. Stay focused!"
	endedTitle     = "Focus Session Ended"
	endedMessage   = "Great job staying focused!"
)

// FocusService runs the Idle/Active state machine. Every transition persists
// the session, flips focus blocking and sends one notification.
type FocusService struct {
	store    focusout.SessionStore
	blocking focusout.BlockingController
	notifier focusout.Notifier
	clock    clock.Clock
	logger   hclog.Logger
	session  domain.Session
}

func NewFocusService(store focusout.SessionStore, blocking focusout.BlockingController, notifier focusout.Notifier, clk clock.Clock, logger hclog.Logger) *FocusService {
	return &FocusService{store: store, blocking: blocking, notifier: notifier, clock: clk, logger: logger}
}

// Load restores a persisted session. A live one re-enables focus blocking;
// one that ran out while the daemon was down is left for the next Tick.
func (s *FocusService) Load(ctx context.Context) error {
	session, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.session = session
	if session.Active && !session.Expired(s.clock.Now()) {
		s.setBlocking(ctx, true)
	}
	return nil
}

func (s *FocusService) Start(ctx context.Context, minutes int) (domain.Session, error) {
	session, err := domain.NewSession(minutes, s.clock.Now())
	if err != nil {
		return domain.Session{}, err
	}
	s.transition(ctx, session, true, startedTitle, startedMessage)
	s.logger.Info("focus session started", "minutes", minutes, "end", session.EndTime)
	return session, nil
}

func (s *FocusService) Stop(ctx context.Context) (domain.Session, error) {
	if !s.session.Active {
		return domain.Session{}, apperrors.ErrNoActiveFocusSession
	}
	s.transition(ctx, domain.Session{}, false, endedTitle, endedMessage)
	s.logger.Info("focus session stopped")
	return s.session, nil
}

// Restore adopts an imported session without announcing it. A session that
// already ran out leaves the current state alone.
func (s *FocusService) Restore(ctx context.Context, session domain.Session) domain.Session {
	session.Active = true
	if session.Expired(s.clock.Now()) {
		return s.session
	}
	s.session = session
	if err := s.store.Save(ctx, session); err != nil {
		s.logger.Warn("persist focus session failed", "error", err)
	}
	s.setBlocking(ctx, true)
	s.logger.Info("focus session restored", "end", session.EndTime)
	return session
}

// Tick ends the session once its end time has passed and reports whether it
// did.
func (s *FocusService) Tick(ctx context.Context) bool {
	if !s.session.Expired(s.clock.Now()) {
		return false
	}
	s.transition(ctx, domain.Session{}, false, endedTitle, endedMessage)
	s.logger.Info("focus session ended")
	return true
}

func (s *FocusService) Current() domain.Session {
	return s.session
}

func (s *FocusService) Now() time.Time {
	return s.clock.Now()
}

func (s *FocusService) transition(ctx context.Context, next domain.Session, active bool, title, message string) {
	s.session = next
	if err := s.store.Save(ctx, next); err != nil {
		s.logger.Warn("persist focus session failed", "error", err)
	}
	s.setBlocking(ctx, active)
	if err := s.notifier.Notify(ctx, title, message); err != nil {
		s.logger.Warn("focus notification failed", "error", err)
	}
}

func (s *FocusService) setBlocking(ctx context.Context, active bool) {
	if err := s.blocking.SetFocusActive(ctx, active); err != nil {
		s.logger.Warn("focus blocking update failed", "active", active, "error", err)
	}
}
