// Package coa defines the chart of accounts that ledger accounts are
// classified against.
package coa

import (
	"github.com/xraph/postings/id"
	"github.com/xraph/postings/types"
)

// ChartOfAccount is a classification scheme referenced by ledgers and
// their accounts.
type ChartOfAccount struct {
	types.Entity
	ID          id.ChartOfAccountID `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
}
