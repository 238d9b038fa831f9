package out

import (
	"context"

	"webtally/internal/modules/focus/domain"
)

type SessionStore interface {
	Load(ctx context.Context) (domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
}

type BlockingController interface {
	SetFocusActive(ctx context.Context, active bool) error
}

type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}
