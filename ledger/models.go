// Package ledger defines the ledger entity: the owner of a hash-chained
// sequence of postings.
package ledger

import (
	"github.com/xraph/postings/id"
	"github.com/xraph/postings/types"
)

// Ledger owns a sequence of postings and references the chart of accounts
// its accounts are drawn from. It is immutable once postings reference it.
type Ledger struct {
	types.Entity
	ID          id.LedgerID         `json:"id"`
	Name        string              `json:"name"`
	CoAID       id.ChartOfAccountID `json:"coa_id"`
	Description string              `json:"description,omitempty"`
}
