// Package postings provides a double-entry posting and statement engine
// for Go applications.
//
// Postings is designed as a library, not a service. It keeps an immutable,
// hash-chained sequence of postings per ledger and computes point-in-time
// account statements by aggregating posting lines since the last Closed
// statement of the account. It provides:
//
//   - Balanced posting with per-ledger SHA-256 hash chaining
//   - Simulated statements computed on demand, without writes
//   - Persisted statements with a per-line audit trail (posting traces)
//   - Statement closing sealed by a balance-statement posting
//   - Pluggable storage (memory, PostgreSQL, SQLite, MongoDB)
//   - Lifecycle hooks for metrics, audit trails and event publishing
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/postings"
//	    "github.com/xraph/postings/store/memory"
//	)
//
//	eng := postings.New(memory.New())
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
// # Core Concepts
//
// A ledger references a chart of accounts and owns accounts. Every account
// has a balance side (Dr, Cr or DrCr) and a category (AS, LI, EQ, RE, EX,
// NOOP, NORE, NOEX):
//
//	cash := &account.Account{
//	    Name:        "Cash",
//	    LedgerID:    ldg.ID,
//	    BalanceSide: account.BalanceSideDr,
//	    Category:    account.CategoryAsset,
//	}
//	err := eng.CreateAccount(ctx, cash)
//
// Postings move amounts between accounts of one ledger. Debits must equal
// credits; the engine links each posting to the previous one of its
// ledger and hashes it before it is stored:
//
//	err := eng.Post(ctx, &posting.Posting{
//	    LedgerID: ldg.ID,
//	    PstTime:  t1,
//	    Lines: []*posting.Line{
//	        {AccountID: cash.ID, Debit: postings.AmountFromInt(100), Credit: postings.Zero},
//	        {AccountID: sales.ID, Debit: postings.Zero, Credit: postings.AmountFromInt(100)},
//	    },
//	})
//
// Statements go through Simulated and Closed:
//
//	view, err := eng.ReadStmt(ctx, cash.ID, t2)   // computed, nothing written
//	view, err = eng.CreateStmt(ctx, cash.ID, t2)  // persisted with traces
//	view, err = eng.CloseStmt(ctx, view.Statement.ID)
//
// A Closed statement becomes the baseline of later statements of the
// account: only lines with pst_time after the baseline's and up to the
// reference time are aggregated on top of its totals.
//
// # Errors
//
// Every failure matches one of the sentinel errors with errors.Is. Storage
// failures match ErrStorage and keep their cause.
//
// # Concurrency
//
// CreateStmt holds the account lock, CloseStmt the account lock and then
// the ledger lock, Post the ledger lock. The default Locker is in-process;
// use lock/redislock when several processes share a store. Stores enforce
// unique statement sequence numbers per account and close statements with
// a conditional write. Operations are not transactional: traces written
// before a failing statement write, or a closing posting written before a
// failing close, remain stored.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	ldg_01h2xcejqtf2nbrexx3vqjhp41   // Ledger ID
//	pst_01h2xcejqtf2nbrexx3vqjhp41   // Posting ID
//	stmt_01h455vb4pex5vsknk084sn02q  // Statement ID
package postings
