package postings_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/postings"
	"github.com/xraph/postings/account"
	"github.com/xraph/postings/hashchain"
	"github.com/xraph/postings/id"
	"github.com/xraph/postings/ledger"
	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/stmt"
)

func TestReadStmtWithoutBaseline(t *testing.T) {
	f := newFixture(t)
	f.example(t)

	tests := []struct {
		name   string
		ref    time.Time
		debit  string
		credit string
		traces int
	}{
		{"before first line", t1.Add(-time.Second), "0", "0", 0},
		{"at first line", t1, "100", "0", 1},
		{"between lines", t1.Add(24 * time.Hour), "100", "0", 1},
		{"at second line", t2, "100", "30", 2},
		{"after all lines", t3, "100", "30", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.store.writes.Load()

			v, err := f.eng.ReadStmt(f.ctx, f.cash.ID, tt.ref)
			if err != nil {
				t.Fatalf("ReadStmt: %v", err)
			}
			s := v.Statement
			assertTotals(t, s, tt.debit, tt.credit)

			if s.Status != stmt.StatusSimulated {
				t.Errorf("status: got %v, want SIMULATED", s.Status)
			}
			if !s.BaselineID.IsNil() {
				t.Errorf("unexpected baseline %s", s.BaselineID)
			}
			if v.Account.ID != f.cash.ID {
				t.Errorf("view account: got %s", v.Account.ID)
			}
			if got := f.store.writes.Load() - before; got != 0 {
				t.Errorf("ReadStmt performed %d writes", got)
			}

			if tt.traces == 0 {
				if v.FirstTrace != nil || v.LatestTrace != nil || !s.FirstTraceID.IsNil() {
					t.Error("expected no trace pointers")
				}
				return
			}
			if v.FirstTrace == nil || v.LatestTrace == nil {
				t.Fatal("expected trace pointers")
			}
			if v.FirstTrace.Position != 1 || v.LatestTrace.Position != tt.traces {
				t.Errorf("trace positions: first %d, latest %d", v.FirstTrace.Position, v.LatestTrace.Position)
			}
			if s.FirstTraceID != v.FirstTrace.ID || s.LatestTraceID != v.LatestTrace.ID {
				t.Error("statement pointers do not match view traces")
			}
			if !v.FirstTrace.LinePstTime.Equal(t1) {
				t.Errorf("first trace line time: got %v", v.FirstTrace.LinePstTime)
			}
		})
	}
}

func TestReadStmtBalance(t *testing.T) {
	f := newFixture(t)
	f.example(t)

	cash, err := f.eng.ReadStmt(f.ctx, f.cash.ID, t2)
	if err != nil {
		t.Fatal(err)
	}
	if got := cash.Statement.Balance(f.cash.BalanceSide); !got.Equal(postings.AmountFromInt(70)) {
		t.Errorf("cash balance: got %s, want 70", got)
	}

	sales, err := f.eng.ReadStmt(f.ctx, f.revenue.ID, t2)
	if err != nil {
		t.Fatal(err)
	}
	if got := sales.Statement.Balance(account.BalanceSideCr); !got.Equal(postings.AmountFromInt(100)) {
		t.Errorf("sales balance: got %s, want 100", got)
	}
}

func TestCloseStmt(t *testing.T) {
	f := newFixture(t)
	f.example(t)

	created, err := f.eng.CreateStmt(f.ctx, f.cash.ID, t2)
	if err != nil {
		t.Fatalf("CreateStmt: %v", err)
	}

	closed, err := f.eng.CloseStmt(f.ctx, created.Statement.ID)
	if err != nil {
		t.Fatalf("CloseStmt: %v", err)
	}
	s := closed.Statement
	if s.Status != stmt.StatusClosed {
		t.Fatalf("status: got %v, want CLOSED", s.Status)
	}
	assertTotals(t, s, "100", "30")
	if s.PostingID.IsNil() || closed.Posting == nil || closed.Posting.ID != s.PostingID {
		t.Fatalf("closing posting not attached: %+v", closed.Posting)
	}
	if !closed.Posting.PstTime.Equal(t2) || closed.Posting.LedgerID != f.ledger.ID {
		t.Errorf("posting ref: %+v", closed.Posting)
	}
	if closed.FirstTrace == nil || closed.LatestTrace == nil {
		t.Error("closed view should resolve persisted traces")
	}

	cp := closed.ClosingPosting
	if cp == nil || cp.ID != s.PostingID {
		t.Fatalf("sealed posting not returned: %+v", cp)
	}
	if cp.Type != posting.TypeBalanceStmt || cp.Status != posting.StatusPosted {
		t.Errorf("returned posting type/status: %v/%v", cp.Type, cp.Status)
	}
	if cp.HashRecord.Hash == "" || cp.HashRecord.AntecedentID.IsNil() {
		t.Errorf("returned posting hash record: %+v", cp.HashRecord)
	}
	if h, _ := hashchain.ComputeHash(cp); h != cp.HashRecord.Hash {
		t.Error("returned posting hash does not recompute")
	}

	p, err := f.eng.GetPosting(f.ctx, s.PostingID)
	if err != nil {
		t.Fatalf("GetPosting: %v", err)
	}
	if len(p.Lines) != 0 {
		t.Errorf("closing posting has %d lines", len(p.Lines))
	}
	if p.Type != posting.TypeBalanceStmt || p.Status != posting.StatusPosted {
		t.Errorf("closing posting type/status: %v/%v", p.Type, p.Status)
	}
	if !p.PstTime.Equal(s.PstTime) {
		t.Errorf("closing posting pst_time %v != statement %v", p.PstTime, s.PstTime)
	}
	if p.IsGenesis() {
		t.Error("closing posting should link to the ledger's previous posting")
	}
	if h, _ := hashchain.ComputeHash(p); h != p.HashRecord.Hash {
		t.Error("closing posting hash does not recompute")
	}

	stored, err := f.eng.GetStmt(f.ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.Statement.IsClosed() || stored.Statement.PostingID != p.ID {
		t.Errorf("persisted statement not closed: %+v", stored.Statement)
	}
}

func TestCloseStmtTwice(t *testing.T) {
	f := newFixture(t)
	f.example(t)

	created, err := f.eng.CreateStmt(f.ctx, f.cash.ID, t2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.eng.CloseStmt(f.ctx, created.Statement.ID); err != nil {
		t.Fatal(err)
	}

	for range 3 {
		before := f.store.writes.Load()
		_, err := f.eng.CloseStmt(f.ctx, created.Statement.ID)
		if !errors.Is(err, postings.ErrStatementAlreadyClosed) {
			t.Fatalf("expected ErrStatementAlreadyClosed, got %v", err)
		}
		if got := f.store.writes.Load() - before; got != 0 {
			t.Errorf("re-close performed %d writes", got)
		}
	}

	list, err := f.eng.ListPostings(f.ctx, f.ledger.ID, posting.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Errorf("expected 2 transfers and 1 closing posting, got %d postings", len(list))
	}
}

func TestReadStmtWithBaseline(t *testing.T) {
	f := newFixture(t)
	f.example(t)

	created, err := f.eng.CreateStmt(f.ctx, f.cash.ID, t2)
	if err != nil {
		t.Fatal(err)
	}
	baseline, err := f.eng.CloseStmt(f.ctx, created.Statement.ID)
	if err != nil {
		t.Fatal(err)
	}

	// A line backdated onto the baseline's own time is covered by the
	// baseline and is not aggregated again.
	f.transfer(t, t2, f.cash, f.revenue, 7)
	f.transfer(t, t2.Add(time.Microsecond), f.cash, f.revenue, 5)
	f.transfer(t, t3, f.expense, f.cash, 2)

	v, err := f.eng.ReadStmt(f.ctx, f.cash.ID, t3)
	if err != nil {
		t.Fatal(err)
	}
	s := v.Statement
	if s.BaselineID != baseline.Statement.ID {
		t.Fatalf("baseline: got %s, want %s", s.BaselineID, baseline.Statement.ID)
	}
	assertTotals(t, s, "105", "32")
	if v.FirstTrace == nil || !v.FirstTrace.LinePstTime.Equal(t2.Add(time.Microsecond)) {
		t.Errorf("first trace should be the first line after the baseline: %+v", v.FirstTrace)
	}
	if s.ID == baseline.Statement.ID {
		t.Error("read must produce a new statement, not reuse the baseline")
	}

	// At the baseline's own time the baseline is not eligible.
	atBoundary, err := f.eng.ReadStmt(f.ctx, f.cash.ID, t2)
	if err != nil {
		t.Fatal(err)
	}
	if !atBoundary.Statement.BaselineID.IsNil() {
		t.Error("baseline must be strictly before the reference time")
	}
	assertTotals(t, atBoundary.Statement, "107", "30")

	// The baseline itself is untouched.
	again, err := f.eng.GetStmt(f.ctx, baseline.Statement.ID)
	if err != nil {
		t.Fatal(err)
	}
	assertTotals(t, again.Statement, "100", "30")
}

func TestBaselineTieBreak(t *testing.T) {
	f := newFixture(t)
	f.example(t)

	var last *stmt.View
	for range 2 {
		created, err := f.eng.CreateStmt(f.ctx, f.cash.ID, t2)
		if err != nil {
			t.Fatal(err)
		}
		if last, err = f.eng.CloseStmt(f.ctx, created.Statement.ID); err != nil {
			t.Fatal(err)
		}
	}

	v, err := f.eng.ReadStmt(f.ctx, f.cash.ID, t3)
	if err != nil {
		t.Fatal(err)
	}
	if v.Statement.BaselineID != last.Statement.ID {
		t.Errorf("expected the highest sequence number to win, got %s", v.Statement.BaselineID)
	}
}

func TestCreateStmtTwice(t *testing.T) {
	f := newFixture(t)
	f.example(t)

	first, err := f.eng.CreateStmt(f.ctx, f.cash.ID, t2)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.eng.CreateStmt(f.ctx, f.cash.ID, t2)
	if err != nil {
		t.Fatal(err)
	}

	if first.Statement.ID == second.Statement.ID {
		t.Fatal("expected distinct statements")
	}
	if first.Statement.SeqNbr != 1 || second.Statement.SeqNbr != 2 {
		t.Errorf("seq numbers: %d, %d", first.Statement.SeqNbr, second.Statement.SeqNbr)
	}
	assertTotals(t, first.Statement, "100", "30")
	assertTotals(t, second.Statement, "100", "30")

	list, err := f.eng.ListStmts(f.ctx, f.cash.ID, stmt.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 persisted statements, got %d", len(list))
	}

	for _, v := range []*stmt.View{first, second} {
		traces, err := f.eng.ListTraces(f.ctx, v.Statement.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(traces) != 2 {
			t.Fatalf("expected 2 traces, got %d", len(traces))
		}
		if traces[0].ID != v.Statement.FirstTraceID || traces[1].ID != v.Statement.LatestTraceID {
			t.Error("trace pointers do not match the persisted audit trail")
		}
		if traces[0].LineHash == "" {
			t.Error("trace should carry the line hash")
		}
	}
}

func TestCreateStmtConcurrent(t *testing.T) {
	f := newFixture(t)
	f.example(t)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.eng.CreateStmt(f.ctx, f.cash.ID, t3)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("CreateStmt: %v", err)
		}
	}

	list, err := f.eng.ListStmts(f.ctx, f.cash.ID, stmt.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != n {
		t.Fatalf("expected %d statements, got %d", n, len(list))
	}
	for i, s := range list {
		if s.SeqNbr != int64(i+1) {
			t.Errorf("statement %d has seq %d", i, s.SeqNbr)
		}
	}
}

func TestCloseStmtConcurrent(t *testing.T) {
	f := newFixture(t)
	f.example(t)

	created, err := f.eng.CreateStmt(f.ctx, f.cash.ID, t2)
	if err != nil {
		t.Fatal(err)
	}

	const n = 6
	var wg sync.WaitGroup
	results := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.eng.CloseStmt(f.ctx, created.Statement.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, already int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, postings.ErrStatementAlreadyClosed):
			already++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || already != n-1 {
		t.Errorf("expected exactly one close to win: ok=%d already=%d", ok, already)
	}
}

func TestStatementNotFound(t *testing.T) {
	f := newFixture(t)

	if _, err := f.eng.ReadStmt(f.ctx, id.NewAccountID(), t1); !errors.Is(err, postings.ErrLedgerAccountNotFound) {
		t.Errorf("ReadStmt: expected ErrLedgerAccountNotFound, got %v", err)
	}
	if _, err := f.eng.CreateStmt(f.ctx, id.NewAccountID(), t1); !errors.Is(err, postings.ErrLedgerAccountNotFound) {
		t.Errorf("CreateStmt: expected ErrLedgerAccountNotFound, got %v", err)
	}
	if _, err := f.eng.CloseStmt(f.ctx, id.NewStatementID()); !errors.Is(err, postings.ErrStatementNotFound) {
		t.Errorf("CloseStmt: expected ErrStatementNotFound, got %v", err)
	}
	if _, err := f.eng.ListTraces(f.ctx, id.NewStatementID()); !errors.Is(err, postings.ErrStatementNotFound) {
		t.Errorf("ListTraces: expected ErrStatementNotFound, got %v", err)
	}
	if _, err := f.eng.ReadStmt(f.ctx, f.cash.ID, time.Time{}); !errors.Is(err, postings.ErrInvalidInput) {
		t.Errorf("ReadStmt(zero time): expected ErrInvalidInput, got %v", err)
	}
}

func TestCloseStmtMissingDirectories(t *testing.T) {
	t.Run("ledger", func(t *testing.T) {
		f := newFixture(t)
		orphan := &account.Account{
			ID:          id.NewAccountID(),
			Name:        "orphan",
			LedgerID:    id.NewLedgerID(),
			CoAID:       f.coa.ID,
			BalanceSide: account.BalanceSideDr,
			Category:    account.CategoryAsset,
		}
		if err := f.mem.CreateAccount(f.ctx, orphan); err != nil {
			t.Fatal(err)
		}
		created, err := f.eng.CreateStmt(f.ctx, orphan.ID, t1)
		if err != nil {
			t.Fatal(err)
		}

		before := f.store.writes.Load()
		if _, err := f.eng.CloseStmt(f.ctx, created.Statement.ID); !errors.Is(err, postings.ErrLedgerNotFound) {
			t.Fatalf("expected ErrLedgerNotFound, got %v", err)
		}
		if got := f.store.writes.Load() - before; got != 0 {
			t.Errorf("failed close performed %d writes", got)
		}
	})

	t.Run("chart of accounts", func(t *testing.T) {
		f := newFixture(t)
		ldg := &ledger.Ledger{ID: id.NewLedgerID(), Name: "detached", CoAID: id.NewChartOfAccountID()}
		if err := f.mem.CreateLedger(f.ctx, ldg); err != nil {
			t.Fatal(err)
		}
		acct := &account.Account{
			ID:          id.NewAccountID(),
			Name:        "cash",
			LedgerID:    ldg.ID,
			CoAID:       ldg.CoAID,
			BalanceSide: account.BalanceSideDr,
			Category:    account.CategoryAsset,
		}
		if err := f.mem.CreateAccount(f.ctx, acct); err != nil {
			t.Fatal(err)
		}
		created, err := f.eng.CreateStmt(f.ctx, acct.ID, t1)
		if err != nil {
			t.Fatal(err)
		}

		if _, err := f.eng.CloseStmt(f.ctx, created.Statement.ID); !errors.Is(err, postings.ErrChartOfAccountNotFound) {
			t.Fatalf("expected ErrChartOfAccountNotFound, got %v", err)
		}
	})

	t.Run("account", func(t *testing.T) {
		f := newFixture(t)
		s := &stmt.Statement{
			ID:          id.NewStatementID(),
			AccountID:   id.NewAccountID(),
			PstTime:     t1,
			Status:      stmt.StatusSimulated,
			TotalDebit:  postings.Zero,
			TotalCredit: postings.Zero,
			SeqNbr:      1,
		}
		if err := f.mem.CreateStmt(f.ctx, s); err != nil {
			t.Fatal(err)
		}
		if _, err := f.eng.CloseStmt(f.ctx, s.ID); !errors.Is(err, postings.ErrLedgerAccountNotFound) {
			t.Fatalf("expected ErrLedgerAccountNotFound, got %v", err)
		}
	})
}

func TestBackdatedLineAfterClose(t *testing.T) {
	f := newFixture(t)
	f.example(t)

	created, err := f.eng.CreateStmt(f.ctx, f.cash.ID, t2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.eng.CloseStmt(f.ctx, created.Statement.ID); err != nil {
		t.Fatal(err)
	}

	late := f.transfer(t, t1, f.cash, f.revenue, 50)

	v, err := f.eng.CreateStmt(f.ctx, f.cash.ID, t3)
	if err != nil {
		t.Fatal(err)
	}
	assertTotals(t, v.Statement, "100", "30")
	if v.FirstTrace != nil {
		t.Errorf("no line lies after the closed statement, got trace %+v", v.FirstTrace)
	}

	stored, err := f.eng.GetPosting(f.ctx, late.ID)
	if err != nil {
		t.Fatalf("backdated posting should be recorded: %v", err)
	}
	if stored.IsGenesis() {
		t.Error("backdated posting should still join the hash chain")
	}
}
