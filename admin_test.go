package postings_test

import (
	"errors"
	"testing"

	"github.com/xraph/postings"
	"github.com/xraph/postings/account"
	"github.com/xraph/postings/id"
	"github.com/xraph/postings/ledger"
)

func TestCreateLedgerRequiresChart(t *testing.T) {
	f := newFixture(t)

	err := f.eng.CreateLedger(f.ctx, &ledger.Ledger{Name: "x", CoAID: id.NewChartOfAccountID()})
	if !errors.Is(err, postings.ErrChartOfAccountNotFound) {
		t.Errorf("expected ErrChartOfAccountNotFound, got %v", err)
	}

	err = f.eng.CreateLedger(f.ctx, &ledger.Ledger{Name: "x"})
	if !errors.Is(err, postings.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateAccountValidation(t *testing.T) {
	f := newFixture(t)
	foreign := f.foreignAccount(t)

	tests := []struct {
		name string
		a    *account.Account
		want error
	}{
		{
			name: "missing name",
			a:    &account.Account{LedgerID: f.ledger.ID, BalanceSide: account.BalanceSideDr, Category: account.CategoryAsset},
			want: postings.ErrInvalidInput,
		},
		{
			name: "invalid balance side",
			a:    &account.Account{Name: "a", LedgerID: f.ledger.ID, Category: account.CategoryAsset},
			want: postings.ErrInvalidInput,
		},
		{
			name: "invalid category",
			a:    &account.Account{Name: "a", LedgerID: f.ledger.ID, BalanceSide: account.BalanceSideCr},
			want: postings.ErrInvalidInput,
		},
		{
			name: "unknown ledger",
			a:    &account.Account{Name: "a", LedgerID: id.NewLedgerID(), BalanceSide: account.BalanceSideDr, Category: account.CategoryAsset},
			want: postings.ErrLedgerNotFound,
		},
		{
			name: "unknown parent",
			a:    &account.Account{Name: "a", LedgerID: f.ledger.ID, ParentID: id.NewAccountID(), BalanceSide: account.BalanceSideDr, Category: account.CategoryAsset},
			want: postings.ErrLedgerAccountNotFound,
		},
		{
			name: "parent in other ledger",
			a:    &account.Account{Name: "a", LedgerID: f.ledger.ID, ParentID: foreign.ID, BalanceSide: account.BalanceSideDr, Category: account.CategoryAsset},
			want: postings.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.eng.CreateAccount(f.ctx, tt.a); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if f.cash.CoAID != f.coa.ID {
		t.Errorf("account CoA should default to the ledger's: got %s", f.cash.CoAID)
	}
}

func TestAccountAncestors(t *testing.T) {
	f := newFixture(t)

	child := &account.Account{
		Name:        "Petty cash",
		LedgerID:    f.ledger.ID,
		ParentID:    f.cash.ID,
		BalanceSide: account.BalanceSideDr,
		Category:    account.CategoryAsset,
	}
	if err := f.eng.CreateAccount(f.ctx, child); err != nil {
		t.Fatal(err)
	}
	grandchild := &account.Account{
		Name:        "Drawer",
		LedgerID:    f.ledger.ID,
		ParentID:    child.ID,
		BalanceSide: account.BalanceSideDr,
		Category:    account.CategoryAsset,
	}
	if err := f.eng.CreateAccount(f.ctx, grandchild); err != nil {
		t.Fatal(err)
	}

	got, err := f.eng.AccountAncestors(f.ctx, grandchild.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != child.ID || got[1].ID != f.cash.ID {
		t.Fatalf("unexpected ancestors: %v", got)
	}

	roots, err := f.eng.AccountAncestors(f.ctx, f.cash.ID)
	if err != nil || len(roots) != 0 {
		t.Errorf("root account should have no ancestors: %v, %v", roots, err)
	}

	accounts, err := f.eng.ListAccounts(f.ctx, f.ledger.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 5 {
		t.Errorf("expected 5 accounts, got %d", len(accounts))
	}
}

func TestAccountAncestorsCycle(t *testing.T) {
	f := newFixture(t)

	a := &account.Account{ID: id.NewAccountID(), Name: "a", LedgerID: f.ledger.ID, CoAID: f.coa.ID, BalanceSide: account.BalanceSideDr, Category: account.CategoryAsset}
	b := &account.Account{ID: id.NewAccountID(), Name: "b", LedgerID: f.ledger.ID, CoAID: f.coa.ID, BalanceSide: account.BalanceSideDr, Category: account.CategoryAsset}
	a.ParentID = b.ID
	b.ParentID = a.ID
	for _, acct := range []*account.Account{a, b} {
		if err := f.mem.CreateAccount(f.ctx, acct); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := f.eng.AccountAncestors(f.ctx, a.ID); !errors.Is(err, postings.ErrAccountCycle) {
		t.Errorf("expected ErrAccountCycle, got %v", err)
	}
}
