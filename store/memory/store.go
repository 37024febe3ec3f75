// Package memory provides an in-memory store for tests and embedding.
// Entities are copied on the way in and out, so callers never share state
// with the store.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/xraph/postings"
	"github.com/xraph/postings/account"
	"github.com/xraph/postings/coa"
	"github.com/xraph/postings/id"
	"github.com/xraph/postings/ledger"
	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/stmt"
	"github.com/xraph/postings/store"
	"github.com/xraph/postings/trace"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	coas     map[id.ChartOfAccountID]*coa.ChartOfAccount
	ledgers  map[id.LedgerID]*ledger.Ledger
	accounts map[id.AccountID]*account.Account

	postings map[id.PostingID]*posting.Posting
	lines    map[id.AccountID][]*posting.Line

	stmts   map[id.StatementID]*stmt.Statement
	stmtSeq map[seqKey]id.StatementID

	traces map[id.TraceID]*trace.Trace
}

type seqKey struct {
	account id.AccountID
	seq     int64
}

func New() *Store {
	return &Store{
		coas:     make(map[id.ChartOfAccountID]*coa.ChartOfAccount),
		ledgers:  make(map[id.LedgerID]*ledger.Ledger),
		accounts: make(map[id.AccountID]*account.Account),
		postings: make(map[id.PostingID]*posting.Posting),
		lines:    make(map[id.AccountID][]*posting.Line),
		stmts:    make(map[id.StatementID]*stmt.Statement),
		stmtSeq:  make(map[seqKey]id.StatementID),
		traces:   make(map[id.TraceID]*trace.Trace),
	}
}

// ──────────────────────────────────────────────────
// Chart of accounts
// ──────────────────────────────────────────────────

func (s *Store) CreateChartOfAccount(_ context.Context, c *coa.ChartOfAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.coas[c.ID]; exists {
		return postings.ErrAlreadyExists
	}
	cp := *c
	s.coas[c.ID] = &cp
	return nil
}

func (s *Store) GetChartOfAccount(_ context.Context, coaID id.ChartOfAccountID) (*coa.ChartOfAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.coas[coaID]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, postings.ErrChartOfAccountNotFound
}

// ──────────────────────────────────────────────────
// Ledgers
// ──────────────────────────────────────────────────

func (s *Store) CreateLedger(_ context.Context, l *ledger.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ledgers[l.ID]; exists {
		return postings.ErrAlreadyExists
	}
	cp := *l
	s.ledgers[l.ID] = &cp
	return nil
}

func (s *Store) GetLedger(_ context.Context, ledgerID id.LedgerID) (*ledger.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if l, ok := s.ledgers[ledgerID]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, postings.ErrLedgerNotFound
}

// ──────────────────────────────────────────────────
// Accounts
// ──────────────────────────────────────────────────

func (s *Store) CreateAccount(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.ID]; exists {
		return postings.ErrAlreadyExists
	}
	cp := *a
	s.accounts[a.ID] = &cp
	return nil
}

func (s *Store) GetAccount(_ context.Context, accountID id.AccountID) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.accounts[accountID]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, postings.ErrLedgerAccountNotFound
}

func (s *Store) ListAccounts(_ context.Context, ledgerID id.LedgerID) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*account.Account, 0)
	for _, a := range s.accounts {
		if a.LedgerID == ledgerID {
			cp := *a
			result = append(result, &cp)
		}
	}
	slices.SortFunc(result, func(a, b *account.Account) int {
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return result, nil
}

// ──────────────────────────────────────────────────
// Postings
// ──────────────────────────────────────────────────

func (s *Store) CreatePosting(_ context.Context, p *posting.Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.postings[p.ID]; exists {
		return postings.ErrAlreadyExists
	}
	cp := clonePosting(p)
	s.postings[p.ID] = cp
	for _, l := range cp.Lines {
		s.lines[l.AccountID] = append(s.lines[l.AccountID], l)
	}
	return nil
}

func (s *Store) GetPosting(_ context.Context, postingID id.PostingID) (*posting.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.postings[postingID]; ok {
		return clonePosting(p), nil
	}
	return nil, postings.ErrPostingNotFound
}

func (s *Store) GetLatestPosting(_ context.Context, ledgerID id.LedgerID) (*posting.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *posting.Posting
	for _, p := range s.postings {
		if p.LedgerID != ledgerID {
			continue
		}
		if latest == nil || chainOrder(p, latest) > 0 {
			latest = p
		}
	}
	if latest == nil {
		return nil, postings.ErrPostingNotFound
	}
	return clonePosting(latest), nil
}

func (s *Store) ListPostings(_ context.Context, ledgerID id.LedgerID, opts posting.ListOpts) ([]*posting.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*posting.Posting, 0)
	for _, p := range s.postings {
		if p.LedgerID == ledgerID {
			result = append(result, clonePosting(p))
		}
	}
	slices.SortFunc(result, chainOrder)
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) ListLinesUpTo(_ context.Context, accountID id.AccountID, to time.Time) ([]*posting.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.selectLines(accountID, func(t time.Time) bool {
		return !t.After(to)
	}), nil
}

func (s *Store) ListLinesInWindow(_ context.Context, accountID id.AccountID, from, to time.Time) ([]*posting.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.selectLines(accountID, func(t time.Time) bool {
		return t.After(from) && !t.After(to)
	}), nil
}

func (s *Store) selectLines(accountID id.AccountID, match func(time.Time) bool) []*posting.Line {
	result := make([]*posting.Line, 0)
	for _, l := range s.lines[accountID] {
		if match(l.PstTime) {
			cp := *l
			result = append(result, &cp)
		}
	}
	slices.SortFunc(result, func(a, b *posting.Line) int {
		if c := a.PstTime.Compare(b.PstTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return result
}

// ──────────────────────────────────────────────────
// Statements
// ──────────────────────────────────────────────────

func (s *Store) CreateStmt(_ context.Context, st *stmt.Statement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stmts[st.ID]; exists {
		return postings.ErrAlreadyExists
	}
	key := seqKey{account: st.AccountID, seq: st.SeqNbr}
	if _, taken := s.stmtSeq[key]; taken {
		return fmt.Errorf("%w: statement %d of account %s", postings.ErrAlreadyExists, st.SeqNbr, st.AccountID)
	}
	cp := *st
	s.stmts[st.ID] = &cp
	s.stmtSeq[key] = st.ID
	return nil
}

func (s *Store) GetStmt(_ context.Context, stmtID id.StatementID) (*stmt.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.stmts[stmtID]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, postings.ErrStatementNotFound
}

func (s *Store) GetLatestClosedStmt(_ context.Context, accountID id.AccountID, before time.Time) (*stmt.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *stmt.Statement
	for _, st := range s.stmts {
		if st.AccountID != accountID || st.Status != stmt.StatusClosed || !st.PstTime.Before(before) {
			continue
		}
		if latest == nil ||
			st.PstTime.After(latest.PstTime) ||
			(st.PstTime.Equal(latest.PstTime) && st.SeqNbr > latest.SeqNbr) {
			latest = st
		}
	}
	if latest == nil {
		return nil, postings.ErrStatementNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *Store) MaxStmtSeqNbr(_ context.Context, accountID id.AccountID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var maxSeq int64
	for key := range s.stmtSeq {
		if key.account == accountID && key.seq > maxSeq {
			maxSeq = key.seq
		}
	}
	return maxSeq, nil
}

func (s *Store) CloseStmt(_ context.Context, stmtID id.StatementID, postingID id.PostingID, closedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stmts[stmtID]
	if !ok {
		return postings.ErrStatementNotFound
	}
	if st.Status != stmt.StatusSimulated {
		return postings.ErrStatementAlreadyClosed
	}
	st.Status = stmt.StatusClosed
	st.PostingID = postingID
	st.UpdatedAt = closedAt
	return nil
}

func (s *Store) ListStmts(_ context.Context, accountID id.AccountID, opts stmt.ListOpts) ([]*stmt.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*stmt.Statement, 0)
	for _, st := range s.stmts {
		if st.AccountID != accountID {
			continue
		}
		if opts.Status != 0 && st.Status != opts.Status {
			continue
		}
		cp := *st
		result = append(result, &cp)
	}
	slices.SortFunc(result, func(a, b *stmt.Statement) int {
		return cmp.Compare(a.SeqNbr, b.SeqNbr)
	})
	return paginate(result, opts.Offset, opts.Limit), nil
}

// ──────────────────────────────────────────────────
// Traces
// ──────────────────────────────────────────────────

func (s *Store) CreateTrace(_ context.Context, t *trace.Trace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.traces[t.ID]; exists {
		return postings.ErrAlreadyExists
	}
	cp := *t
	s.traces[t.ID] = &cp
	return nil
}

func (s *Store) GetTrace(_ context.Context, traceID id.TraceID) (*trace.Trace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.traces[traceID]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, postings.ErrTraceNotFound
}

func (s *Store) ListTraces(_ context.Context, stmtID id.StatementID) ([]*trace.Trace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*trace.Trace, 0)
	for _, t := range s.traces {
		if t.StmtID == stmtID {
			cp := *t
			result = append(result, &cp)
		}
	}
	slices.SortFunc(result, func(a, b *trace.Trace) int {
		return cmp.Compare(a.Position, b.Position)
	})
	return result, nil
}

// ──────────────────────────────────────────────────
// Core
// ──────────────────────────────────────────────────

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// chainOrder orders postings by record time, then id.
func chainOrder(a, b *posting.Posting) int {
	if c := a.RecordTime.Compare(b.RecordTime); c != 0 {
		return c
	}
	return cmp.Compare(a.ID.String(), b.ID.String())
}

func clonePosting(p *posting.Posting) *posting.Posting {
	cp := *p
	cp.Lines = make([]*posting.Line, len(p.Lines))
	for i, l := range p.Lines {
		lc := *l
		cp.Lines[i] = &lc
	}
	return &cp
}

func paginate[T any](items []T, offset, limit int) []T {
	start := max(offset, 0)
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
