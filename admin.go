package postings

import (
	"context"
	"fmt"

	"github.com/xraph/postings/account"
	"github.com/xraph/postings/coa"
	"github.com/xraph/postings/id"
	"github.com/xraph/postings/ledger"
	"github.com/xraph/postings/types"
)

// ──────────────────────────────────────────────────
// Chart of accounts
// ──────────────────────────────────────────────────

// CreateChartOfAccount creates a chart of accounts.
func (e *Engine) CreateChartOfAccount(ctx context.Context, c *coa.ChartOfAccount) error {
	if c.Name == "" {
		return ValidationError{Field: "name", Message: "required"}
	}
	if c.ID.IsNil() {
		c.ID = id.NewChartOfAccountID()
	}
	c.Entity = types.NewEntityAt(e.now())

	return storageError("save chart of accounts", e.store.CreateChartOfAccount(ctx, c))
}

// GetChartOfAccount retrieves a chart of accounts by ID.
func (e *Engine) GetChartOfAccount(ctx context.Context, coaID id.ChartOfAccountID) (*coa.ChartOfAccount, error) {
	c, err := e.store.GetChartOfAccount(ctx, coaID)
	if err != nil {
		return nil, storageError("load chart of accounts", err)
	}
	return c, nil
}

// ──────────────────────────────────────────────────
// Ledgers
// ──────────────────────────────────────────────────

// CreateLedger creates a ledger bound to an existing chart of accounts.
func (e *Engine) CreateLedger(ctx context.Context, l *ledger.Ledger) error {
	if l.Name == "" {
		return ValidationError{Field: "name", Message: "required"}
	}
	if l.CoAID.IsNil() {
		return ValidationError{Field: "coa_id", Message: "required"}
	}
	if _, err := e.store.GetChartOfAccount(ctx, l.CoAID); err != nil {
		return storageError("load chart of accounts", err)
	}
	if l.ID.IsNil() {
		l.ID = id.NewLedgerID()
	}
	l.Entity = types.NewEntityAt(e.now())

	return storageError("save ledger", e.store.CreateLedger(ctx, l))
}

// GetLedger retrieves a ledger by ID.
func (e *Engine) GetLedger(ctx context.Context, ledgerID id.LedgerID) (*ledger.Ledger, error) {
	l, err := e.store.GetLedger(ctx, ledgerID)
	if err != nil {
		return nil, storageError("load ledger", err)
	}
	return l, nil
}

// ──────────────────────────────────────────────────
// Accounts
// ──────────────────────────────────────────────────

// CreateAccount creates a ledger account. The ledger must exist; the CoA
// defaults to the ledger's; a parent, when given, must belong to the
// same ledger.
func (e *Engine) CreateAccount(ctx context.Context, a *account.Account) error {
	if a.Name == "" {
		return ValidationError{Field: "name", Message: "required"}
	}
	if a.LedgerID.IsNil() {
		return ValidationError{Field: "ledger_id", Message: "required"}
	}
	if !a.BalanceSide.Valid() {
		return ValidationError{Field: "balance_side", Message: fmt.Sprintf("unknown balance side %d", a.BalanceSide)}
	}
	if !a.Category.Valid() {
		return ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %d", a.Category)}
	}

	ldg, err := e.store.GetLedger(ctx, a.LedgerID)
	if err != nil {
		return storageError("load ledger", err)
	}
	if a.CoAID.IsNil() {
		a.CoAID = ldg.CoAID
	}
	if _, err := e.store.GetChartOfAccount(ctx, a.CoAID); err != nil {
		return storageError("load chart of accounts", err)
	}

	if a.HasParent() {
		parent, err := e.store.GetAccount(ctx, a.ParentID)
		if err != nil {
			return storageError("load parent account", err)
		}
		if parent.LedgerID != a.LedgerID {
			return ValidationError{Field: "parent_id", Message: "parent belongs to another ledger"}
		}
	}

	if a.ID.IsNil() {
		a.ID = id.NewAccountID()
	}
	a.Entity = types.NewEntityAt(e.now())

	return storageError("save account", e.store.CreateAccount(ctx, a))
}

// GetAccount retrieves a ledger account by ID.
func (e *Engine) GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	a, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, storageError("load account", err)
	}
	return a, nil
}

// ListAccounts returns the accounts of a ledger.
func (e *Engine) ListAccounts(ctx context.Context, ledgerID id.LedgerID) ([]*account.Account, error) {
	list, err := e.store.ListAccounts(ctx, ledgerID)
	return list, storageError("list accounts", err)
}

// AccountAncestors resolves the parent chain of an account, nearest parent
// first. A chain that revisits an account fails with ErrAccountCycle.
func (e *Engine) AccountAncestors(ctx context.Context, accountID id.AccountID) ([]*account.Account, error) {
	a, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, storageError("load account", err)
	}

	visited := map[id.AccountID]bool{a.ID: true}
	var ancestors []*account.Account
	for a.HasParent() {
		if visited[a.ParentID] {
			return nil, fmt.Errorf("%w: %s", ErrAccountCycle, a.ParentID)
		}
		visited[a.ParentID] = true

		a, err = e.store.GetAccount(ctx, a.ParentID)
		if err != nil {
			return nil, storageError("load parent account", err)
		}
		ancestors = append(ancestors, a)
	}
	return ancestors, nil
}
