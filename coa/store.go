package coa

import (
	"context"

	"github.com/xraph/postings/id"
)

type Store interface {
	Create(ctx context.Context, c *ChartOfAccount) error
	Get(ctx context.Context, coaID id.ChartOfAccountID) (*ChartOfAccount, error)
}
