package out

import (
	"context"

	"webtally/internal/modules/tracking/domain"
)

type LedgerStore interface {
	LoadLedger(ctx context.Context) (domain.Ledger, error)
	SaveLedger(ctx context.Context, ledger domain.Ledger) error
}
