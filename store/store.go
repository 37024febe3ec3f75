// Package store defines the unified storage interface consumed by the
// postings engine. Backends live in the sub-packages.
package store

import (
	"context"
	"time"

	"github.com/xraph/postings/account"
	"github.com/xraph/postings/coa"
	"github.com/xraph/postings/id"
	"github.com/xraph/postings/ledger"
	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/stmt"
	"github.com/xraph/postings/trace"
)

// Store is the unified storage interface for all postings entities.
// Methods are declared explicitly instead of embedding the per-entity
// interfaces to avoid name conflicts (Create, Get, List).
//
// Lookups signal absence with the matching postings.ErrXNotFound sentinel.
type Store interface {
	// Chart of accounts methods
	CreateChartOfAccount(ctx context.Context, c *coa.ChartOfAccount) error
	GetChartOfAccount(ctx context.Context, coaID id.ChartOfAccountID) (*coa.ChartOfAccount, error)

	// Ledger methods
	CreateLedger(ctx context.Context, l *ledger.Ledger) error
	GetLedger(ctx context.Context, ledgerID id.LedgerID) (*ledger.Ledger, error)

	// Account methods
	CreateAccount(ctx context.Context, a *account.Account) error
	GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error)
	ListAccounts(ctx context.Context, ledgerID id.LedgerID) ([]*account.Account, error)

	// Posting methods
	CreatePosting(ctx context.Context, p *posting.Posting) error
	GetPosting(ctx context.Context, postingID id.PostingID) (*posting.Posting, error)
	GetLatestPosting(ctx context.Context, ledgerID id.LedgerID) (*posting.Posting, error)
	ListPostings(ctx context.Context, ledgerID id.LedgerID, opts posting.ListOpts) ([]*posting.Posting, error)
	ListLinesUpTo(ctx context.Context, accountID id.AccountID, to time.Time) ([]*posting.Line, error)
	ListLinesInWindow(ctx context.Context, accountID id.AccountID, from, to time.Time) ([]*posting.Line, error)

	// Statement methods
	CreateStmt(ctx context.Context, s *stmt.Statement) error
	GetStmt(ctx context.Context, stmtID id.StatementID) (*stmt.Statement, error)
	GetLatestClosedStmt(ctx context.Context, accountID id.AccountID, before time.Time) (*stmt.Statement, error)
	MaxStmtSeqNbr(ctx context.Context, accountID id.AccountID) (int64, error)
	CloseStmt(ctx context.Context, stmtID id.StatementID, postingID id.PostingID, closedAt time.Time) error
	ListStmts(ctx context.Context, accountID id.AccountID, opts stmt.ListOpts) ([]*stmt.Statement, error)

	// Trace methods
	CreateTrace(ctx context.Context, t *trace.Trace) error
	GetTrace(ctx context.Context, traceID id.TraceID) (*trace.Trace, error)
	ListTraces(ctx context.Context, stmtID id.StatementID) ([]*trace.Trace, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
