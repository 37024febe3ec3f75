// Package account defines ledger accounts and their classification.
package account

import (
	"github.com/xraph/postings/id"
	"github.com/xraph/postings/types"
)

// BalanceSide fixes which side of a posting line increases an account's
// balance. The zero value is invalid.
type BalanceSide int

const (
	BalanceSideDr   BalanceSide = iota + 1 // debit increases the balance
	BalanceSideCr                          // credit increases the balance
	BalanceSideDrCr                        // either side, balance reported debit-positive
)

// BalanceSides lists every valid balance side.
func BalanceSides() []BalanceSide {
	return []BalanceSide{BalanceSideDr, BalanceSideCr, BalanceSideDrCr}
}

func (b BalanceSide) String() string {
	switch b {
	case BalanceSideDr:
		return "Dr"
	case BalanceSideCr:
		return "Cr"
	case BalanceSideDrCr:
		return "DrCr"
	default:
		return "BalanceSide(invalid)"
	}
}

// Valid reports whether b is a known balance side.
func (b BalanceSide) Valid() bool {
	return b >= BalanceSideDr && b <= BalanceSideDrCr
}

// Category classifies the accounting nature of an account.
// The zero value is invalid.
type Category int

const (
	CategoryRevenue Category = iota + 1
	CategoryExpense
	CategoryAsset
	CategoryLiability
	CategoryEquity
	CategoryNoOp
	CategoryNonOperatingRevenue
	CategoryNonOperatingExpense
)

// Categories lists every valid category.
func Categories() []Category {
	return []Category{
		CategoryRevenue,
		CategoryExpense,
		CategoryAsset,
		CategoryLiability,
		CategoryEquity,
		CategoryNoOp,
		CategoryNonOperatingRevenue,
		CategoryNonOperatingExpense,
	}
}

func (c Category) String() string {
	switch c {
	case CategoryRevenue:
		return "RE"
	case CategoryExpense:
		return "EX"
	case CategoryAsset:
		return "AS"
	case CategoryLiability:
		return "LI"
	case CategoryEquity:
		return "EQ"
	case CategoryNoOp:
		return "NOOP"
	case CategoryNonOperatingRevenue:
		return "NORE"
	case CategoryNonOperatingExpense:
		return "NOEX"
	default:
		return "Category(invalid)"
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c >= CategoryRevenue && c <= CategoryNonOperatingExpense
}

// Account is a ledger account. ParentID is an identity reference into the
// account directory (id.Nil for roots); ancestors are resolved with an
// explicit read, never through an owning link.
type Account struct {
	types.Entity
	ID          id.AccountID        `json:"id"`
	Name        string              `json:"name"`
	LedgerID    id.LedgerID         `json:"ledger_id"`
	ParentID    id.AccountID        `json:"parent_id,omitzero"`
	CoAID       id.ChartOfAccountID `json:"coa_id"`
	BalanceSide BalanceSide         `json:"balance_side"`
	Category    Category            `json:"category"`
}

// HasParent reports whether the account is nested under another account.
func (a *Account) HasParent() bool {
	return !a.ParentID.IsNil()
}
