package account

import (
	"context"

	"github.com/xraph/postings/id"
)

type Store interface {
	Create(ctx context.Context, a *Account) error
	Get(ctx context.Context, accountID id.AccountID) (*Account, error)
	List(ctx context.Context, ledgerID id.LedgerID) ([]*Account, error)
}
