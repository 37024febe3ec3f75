package postings_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/postings"
	"github.com/xraph/postings/account"
	"github.com/xraph/postings/coa"
	"github.com/xraph/postings/ledger"
	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/stmt"
	"github.com/xraph/postings/store"
	"github.com/xraph/postings/store/memory"
	"github.com/xraph/postings/trace"
)

var (
	t1 = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	t2 = time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	t3 = time.Date(2024, 1, 30, 12, 0, 0, 0, time.UTC)
)

// countingStore counts every write that reaches the store.
type countingStore struct {
	store.Store
	writes atomic.Int64
}

func (c *countingStore) CreateChartOfAccount(ctx context.Context, v *coa.ChartOfAccount) error {
	c.writes.Add(1)
	return c.Store.CreateChartOfAccount(ctx, v)
}

func (c *countingStore) CreateLedger(ctx context.Context, v *ledger.Ledger) error {
	c.writes.Add(1)
	return c.Store.CreateLedger(ctx, v)
}

func (c *countingStore) CreateAccount(ctx context.Context, v *account.Account) error {
	c.writes.Add(1)
	return c.Store.CreateAccount(ctx, v)
}

func (c *countingStore) CreatePosting(ctx context.Context, v *posting.Posting) error {
	c.writes.Add(1)
	return c.Store.CreatePosting(ctx, v)
}

func (c *countingStore) CreateStmt(ctx context.Context, v *stmt.Statement) error {
	c.writes.Add(1)
	return c.Store.CreateStmt(ctx, v)
}

func (c *countingStore) CloseStmt(ctx context.Context, stmtID postings.ID, postingID postings.ID, closedAt time.Time) error {
	c.writes.Add(1)
	return c.Store.CloseStmt(ctx, stmtID, postingID, closedAt)
}

func (c *countingStore) CreateTrace(ctx context.Context, v *trace.Trace) error {
	c.writes.Add(1)
	return c.Store.CreateTrace(ctx, v)
}

type fixture struct {
	ctx   context.Context
	eng   *postings.Engine
	store *countingStore
	mem   *memory.Store

	coa     *coa.ChartOfAccount
	ledger  *ledger.Ledger
	cash    *account.Account
	revenue *account.Account
	expense *account.Account
}

func newFixture(t *testing.T, opts ...postings.Option) *fixture {
	t.Helper()

	mem := memory.New()
	cs := &countingStore{Store: mem}
	f := &fixture{
		ctx:   context.Background(),
		eng:   postings.New(cs, opts...),
		store: cs,
		mem:   mem,
	}
	if err := f.eng.Start(f.ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = f.eng.Stop() })

	f.coa = &coa.ChartOfAccount{Name: "IFRS"}
	if err := f.eng.CreateChartOfAccount(f.ctx, f.coa); err != nil {
		t.Fatalf("CreateChartOfAccount: %v", err)
	}
	f.ledger = &ledger.Ledger{Name: "main", CoAID: f.coa.ID}
	if err := f.eng.CreateLedger(f.ctx, f.ledger); err != nil {
		t.Fatalf("CreateLedger: %v", err)
	}

	f.cash = f.account(t, "Cash", account.BalanceSideDr, account.CategoryAsset)
	f.revenue = f.account(t, "Sales", account.BalanceSideCr, account.CategoryRevenue)
	f.expense = f.account(t, "Fees", account.BalanceSideDr, account.CategoryExpense)
	return f
}

func (f *fixture) account(t *testing.T, name string, side account.BalanceSide, cat account.Category) *account.Account {
	t.Helper()

	a := &account.Account{
		Name:        name,
		LedgerID:    f.ledger.ID,
		BalanceSide: side,
		Category:    cat,
	}
	if err := f.eng.CreateAccount(f.ctx, a); err != nil {
		t.Fatalf("CreateAccount(%s): %v", name, err)
	}
	return a
}

// foreignAccount creates a second ledger in the fixture's store and returns
// an account of it.
func (f *fixture) foreignAccount(t *testing.T) *account.Account {
	t.Helper()

	ldg := &ledger.Ledger{Name: "branch", CoAID: f.coa.ID}
	if err := f.eng.CreateLedger(f.ctx, ldg); err != nil {
		t.Fatalf("CreateLedger: %v", err)
	}
	a := &account.Account{
		Name:        "Branch cash",
		LedgerID:    ldg.ID,
		BalanceSide: account.BalanceSideDr,
		Category:    account.CategoryAsset,
	}
	if err := f.eng.CreateAccount(f.ctx, a); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return a
}

// transfer posts amount from the credited account to the debited one.
func (f *fixture) transfer(t *testing.T, at time.Time, debit, credit *account.Account, amount int64) *posting.Posting {
	t.Helper()

	p := &posting.Posting{
		OprID:    "op-" + at.Format("20060102"),
		OprType:  "TRANSFER",
		PstTime:  at,
		LedgerID: f.ledger.ID,
		Lines: []*posting.Line{
			{AccountID: debit.ID, Debit: postings.AmountFromInt(amount), Credit: postings.Zero},
			{AccountID: credit.ID, Debit: postings.Zero, Credit: postings.AmountFromInt(amount)},
		},
	}
	if err := f.eng.Post(f.ctx, p); err != nil {
		t.Fatalf("Post: %v", err)
	}
	return p
}

// example posts the reference scenario: cash debited 100 at t1 and
// credited 30 at t2.
func (f *fixture) example(t *testing.T) {
	t.Helper()
	f.transfer(t, t1, f.cash, f.revenue, 100)
	f.transfer(t, t2, f.expense, f.cash, 30)
}

func assertTotals(t *testing.T, s *stmt.Statement, debit, credit string) {
	t.Helper()
	if !s.TotalDebit.Equal(postings.MustParseAmount(debit)) {
		t.Errorf("total_debit: got %s, want %s", s.TotalDebit, debit)
	}
	if !s.TotalCredit.Equal(postings.MustParseAmount(credit)) {
		t.Errorf("total_credit: got %s, want %s", s.TotalCredit, credit)
	}
}
