// Package codec translates domain enumerations to and from the codes
// persisted by the storage backends.
//
// Each enumeration has one Table built at package initialisation. Building
// a table panics when a domain variant has no record code, when two
// variants share a code, or when a declared record code has no domain
// variant, so a variant added on either side without updating the other
// stops the program at start-up instead of silently dropping data.
package codec

import (
	"errors"
	"fmt"

	"github.com/xraph/postings/account"
	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/stmt"
)

// ErrUnmapped is returned when a value has no counterpart on the other side.
var ErrUnmapped = errors.New("codec: unmapped value")

// Table is a total bijection between domain values of type D and record codes.
type Table[D comparable] struct {
	name     string
	codes    []string
	toCode   map[D]string
	fromCode map[string]D
}

// NewTable builds a table from every domain variant, every record code and
// the exhaustive domain-to-code function. It panics on any gap or collision.
func NewTable[D comparable](name string, variants []D, codes []string, code func(D) string) *Table[D] {
	t := &Table[D]{
		name:     name,
		codes:    codes,
		toCode:   make(map[D]string, len(variants)),
		fromCode: make(map[string]D, len(codes)),
	}

	for _, v := range variants {
		c := code(v)
		if c == "" {
			panic(fmt.Sprintf("codec: %s variant %v has no record code", name, v))
		}
		if prev, dup := t.fromCode[c]; dup {
			panic(fmt.Sprintf("codec: %s variants %v and %v share record code %q", name, prev, v, c))
		}
		t.toCode[v] = c
		t.fromCode[c] = v
	}

	declared := make(map[string]bool, len(codes))
	for _, c := range codes {
		if declared[c] {
			panic(fmt.Sprintf("codec: %s record code %q declared twice", name, c))
		}
		declared[c] = true
		if _, ok := t.fromCode[c]; !ok {
			panic(fmt.Sprintf("codec: %s record code %q has no domain variant", name, c))
		}
	}
	for c := range t.fromCode {
		if !declared[c] {
			panic(fmt.Sprintf("codec: %s record code %q is not declared", name, c))
		}
	}

	return t
}

// Encode returns the record code for v.
func (t *Table[D]) Encode(v D) (string, error) {
	c, ok := t.toCode[v]
	if !ok {
		return "", fmt.Errorf("%w: %s %v", ErrUnmapped, t.name, v)
	}
	return c, nil
}

// Decode returns the domain value for a record code.
func (t *Table[D]) Decode(c string) (D, error) {
	v, ok := t.fromCode[c]
	if !ok {
		var zero D
		return zero, fmt.Errorf("%w: %s code %q", ErrUnmapped, t.name, c)
	}
	return v, nil
}

// Codes returns every record code in declaration order.
func (t *Table[D]) Codes() []string {
	return append([]string(nil), t.codes...)
}

// ──────────────────────────────────────────────────
// Tables
// ──────────────────────────────────────────────────

// BalanceSide maps account.BalanceSide.
var BalanceSide = NewTable("balance side",
	account.BalanceSides(),
	[]string{"Dr", "Cr", "DrCr"},
	func(b account.BalanceSide) string {
		switch b {
		case account.BalanceSideDr:
			return "Dr"
		case account.BalanceSideCr:
			return "Cr"
		case account.BalanceSideDrCr:
			return "DrCr"
		}
		return ""
	},
)

// Category maps account.Category.
var Category = NewTable("account category",
	account.Categories(),
	[]string{"RE", "EX", "AS", "LI", "EQ", "NOOP", "NORE", "NOEX"},
	func(c account.Category) string {
		switch c {
		case account.CategoryRevenue:
			return "RE"
		case account.CategoryExpense:
			return "EX"
		case account.CategoryAsset:
			return "AS"
		case account.CategoryLiability:
			return "LI"
		case account.CategoryEquity:
			return "EQ"
		case account.CategoryNoOp:
			return "NOOP"
		case account.CategoryNonOperatingRevenue:
			return "NORE"
		case account.CategoryNonOperatingExpense:
			return "NOEX"
		}
		return ""
	},
)

// StmtStatus maps stmt.Status.
var StmtStatus = NewTable("statement status",
	stmt.Statuses(),
	[]string{"SIMULATED", "CLOSED"},
	func(s stmt.Status) string {
		switch s {
		case stmt.StatusSimulated:
			return "SIMULATED"
		case stmt.StatusClosed:
			return "CLOSED"
		}
		return ""
	},
)

// PostingStatus maps posting.Status.
var PostingStatus = NewTable("posting status",
	posting.Statuses(),
	[]string{"DEFERRED", "POSTED", "PROPOSED", "SIMULATED", "TAX", "UNPOSTED", "CANCELLED", "OTHER"},
	func(s posting.Status) string {
		switch s {
		case posting.StatusDeferred:
			return "DEFERRED"
		case posting.StatusPosted:
			return "POSTED"
		case posting.StatusProposed:
			return "PROPOSED"
		case posting.StatusSimulated:
			return "SIMULATED"
		case posting.StatusTax:
			return "TAX"
		case posting.StatusUnposted:
			return "UNPOSTED"
		case posting.StatusCancelled:
			return "CANCELLED"
		case posting.StatusOther:
			return "OTHER"
		}
		return ""
	},
)

// PostingType maps posting.Type.
var PostingType = NewTable("posting type",
	posting.Types(),
	[]string{"BUSI_TX", "ADJ_TX", "BAL_STMT", "PNL_STMT", "BS_STMT", "LDG_CLSNG"},
	func(t posting.Type) string {
		switch t {
		case posting.TypeBusinessTx:
			return "BUSI_TX"
		case posting.TypeAdjustmentTx:
			return "ADJ_TX"
		case posting.TypeBalanceStmt:
			return "BAL_STMT"
		case posting.TypePnLStmt:
			return "PNL_STMT"
		case posting.TypeBalanceSheetStmt:
			return "BS_STMT"
		case posting.TypeLedgerClosing:
			return "LDG_CLSNG"
		}
		return ""
	},
)
