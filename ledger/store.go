package ledger

import (
	"context"

	"github.com/xraph/postings/id"
)

type Store interface {
	Create(ctx context.Context, l *Ledger) error
	Get(ctx context.Context, ledgerID id.LedgerID) (*Ledger, error)
}
