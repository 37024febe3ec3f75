package postings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/postings/account"
	"github.com/xraph/postings/id"
	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/stmt"
	"github.com/xraph/postings/trace"
	"github.com/xraph/postings/types"
)

// ──────────────────────────────────────────────────
// Statement lifecycle
// ──────────────────────────────────────────────────

// ReadStmt computes the Simulated statement of an account at refTime. It
// performs no writes; the traces of the pass exist only in the returned
// view and carry no persisted identity.
func (e *Engine) ReadStmt(ctx context.Context, accountID id.AccountID, refTime time.Time) (*stmt.View, error) {
	v, _, err := e.build(ctx, accountID, refTime, false)
	if err != nil {
		return nil, e.fail(ctx, "read_stmt", err)
	}

	e.logger.Debug("statement read",
		"account_id", accountID.String(),
		"pst_time", v.Statement.PstTime,
		"total_debit", v.Statement.TotalDebit.String(),
		"total_credit", v.Statement.TotalCredit.String(),
	)
	return v, nil
}

// CreateStmt computes the statement of an account at refTime and persists
// it together with the traces of the pass. Each call creates a new row
// with the account's next sequence number, even when nothing changed.
//
// Traces are written before the statement; when a later write fails the
// already written traces remain.
func (e *Engine) CreateStmt(ctx context.Context, accountID id.AccountID, refTime time.Time) (*stmt.View, error) {
	v, err := e.createStmt(ctx, accountID, refTime)
	if err != nil {
		return nil, e.fail(ctx, "create_stmt", err)
	}
	return v, nil
}

func (e *Engine) createStmt(ctx context.Context, accountID id.AccountID, refTime time.Time) (*stmt.View, error) {
	unlock, err := e.lock(ctx, accountLockKey(accountID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	v, traces, err := e.build(ctx, accountID, refTime, true)
	if err != nil {
		return nil, err
	}

	s := v.Statement
	seq, err := e.store.MaxStmtSeqNbr(ctx, accountID)
	if err != nil {
		return nil, storageError("next statement sequence", err)
	}
	s.SeqNbr = seq + 1

	if err := e.store.CreateStmt(ctx, s); err != nil {
		return nil, storageError("save statement", err)
	}

	e.plugins.EmitStatementCreated(ctx, v)
	e.logger.Info("statement created",
		"stmt_id", s.ID.String(),
		"account_id", accountID.String(),
		"seq_nbr", s.SeqNbr,
		"traces", len(traces),
	)
	return v, nil
}

// CloseStmt seals a persisted Simulated statement with a zero-line
// balance-statement posting linked into the ledger's hash chain, then
// marks the statement Closed. The returned view carries the sealed posting
// in ClosingPosting. Closing a Closed statement fails with
// ErrStatementAlreadyClosed before anything is written.
//
// The posting is persisted before the statement is closed; if the close
// fails afterwards the posting remains in the chain.
func (e *Engine) CloseStmt(ctx context.Context, stmtID id.StatementID) (*stmt.View, error) {
	v, err := e.closeStmt(ctx, stmtID)
	if err != nil {
		return nil, e.fail(ctx, "close_stmt", err)
	}
	return v, nil
}

func (e *Engine) closeStmt(ctx context.Context, stmtID id.StatementID) (*stmt.View, error) {
	s, err := e.store.GetStmt(ctx, stmtID)
	if err != nil {
		return nil, storageError("load statement", err)
	}
	if s.IsClosed() {
		return nil, fmt.Errorf("%w: %s", ErrStatementAlreadyClosed, stmtID)
	}

	unlock, err := e.lock(ctx, accountLockKey(s.AccountID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Reload under the lock; a concurrent close may have won.
	s, err = e.store.GetStmt(ctx, stmtID)
	if err != nil {
		return nil, storageError("load statement", err)
	}
	if s.IsClosed() {
		return nil, fmt.Errorf("%w: %s", ErrStatementAlreadyClosed, stmtID)
	}

	acct, err := e.store.GetAccount(ctx, s.AccountID)
	if err != nil {
		return nil, storageError("load account", err)
	}
	ldg, err := e.store.GetLedger(ctx, acct.LedgerID)
	if err != nil {
		return nil, storageError("load ledger", err)
	}
	if _, err := e.store.GetChartOfAccount(ctx, ldg.CoAID); err != nil {
		return nil, storageError("load chart of accounts", err)
	}

	unlockLedger, err := e.lock(ctx, ledgerLockKey(ldg.ID))
	if err != nil {
		return nil, err
	}
	defer unlockLedger()

	now := e.now()
	p := &posting.Posting{
		Entity:     types.NewEntityAt(now),
		ID:         id.NewPostingID(),
		RecordUser: e.recordUser,
		RecordTime: now,
		OprID:      s.ID.String(),
		OprTime:    now,
		OprType:    posting.TypeBalanceStmt.String(),
		OprDetails: fmt.Sprintf("balance statement %d of account %s", s.SeqNbr, acct.ID),
		OprSrc:     acct.ID.String(),
		PstTime:    s.PstTime,
		Status:     posting.StatusPosted,
		Type:       posting.TypeBalanceStmt,
		LedgerID:   ldg.ID,
		ValTime:    now,
		Lines:      []*posting.Line{},
	}
	if err := e.seal(ctx, p); err != nil {
		return nil, err
	}
	if err := e.store.CreatePosting(ctx, p); err != nil {
		return nil, storageError("save closing posting", err)
	}
	e.plugins.EmitPostingRecorded(ctx, p)

	if err := e.store.CloseStmt(ctx, s.ID, p.ID, now); err != nil {
		return nil, storageError("close statement", err)
	}
	s.Status = stmt.StatusClosed
	s.PostingID = p.ID
	s.Touch(now)

	v, err := e.decorate(ctx, s, acct)
	if err != nil {
		return nil, err
	}
	v.ClosingPosting = p

	e.plugins.EmitStatementClosed(ctx, s, p)
	e.logger.Info("statement closed",
		"stmt_id", s.ID.String(),
		"account_id", acct.ID.String(),
		"posting_id", p.ID.String(),
		"hash", p.HashRecord.Hash,
	)
	return v, nil
}

// GetStmt loads a persisted statement and decorates it with its account,
// trace pointers and closing posting reference.
func (e *Engine) GetStmt(ctx context.Context, stmtID id.StatementID) (*stmt.View, error) {
	s, err := e.store.GetStmt(ctx, stmtID)
	if err != nil {
		return nil, storageError("load statement", err)
	}
	acct, err := e.store.GetAccount(ctx, s.AccountID)
	if err != nil {
		return nil, storageError("load account", err)
	}
	return e.decorate(ctx, s, acct)
}

// ListStmts lists the persisted statements of an account by sequence number.
func (e *Engine) ListStmts(ctx context.Context, accountID id.AccountID, opts stmt.ListOpts) ([]*stmt.Statement, error) {
	list, err := e.store.ListStmts(ctx, accountID, opts)
	return list, storageError("list statements", err)
}

// ListTraces returns the audit trail of a persisted statement.
func (e *Engine) ListTraces(ctx context.Context, stmtID id.StatementID) ([]*trace.Trace, error) {
	if _, err := e.store.GetStmt(ctx, stmtID); err != nil {
		return nil, storageError("load statement", err)
	}
	list, err := e.store.ListTraces(ctx, stmtID)
	return list, storageError("list traces", err)
}

// ──────────────────────────────────────────────────
// Aggregation
// ──────────────────────────────────────────────────

// build runs one aggregation pass for the account at refTime. The result
// is always a new Simulated statement; a Closed baseline only seeds its
// totals. With persist set every trace is written as it is produced.
func (e *Engine) build(ctx context.Context, accountID id.AccountID, refTime time.Time, persist bool) (*stmt.View, []*trace.Trace, error) {
	ref := types.Timestamp(refTime)
	if ref.IsZero() {
		return nil, nil, ValidationError{Field: "ref_time", Message: "required"}
	}

	acct, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, nil, storageError("load account", err)
	}

	now := e.now()
	s := &stmt.Statement{
		Entity:      types.NewEntityAt(now),
		ID:          id.NewStatementID(),
		AccountID:   acct.ID,
		PstTime:     ref,
		Status:      stmt.StatusSimulated,
		TotalDebit:  types.Zero,
		TotalCredit: types.Zero,
	}

	baseline, err := e.store.GetLatestClosedStmt(ctx, acct.ID, ref)
	switch {
	case errors.Is(err, ErrStatementNotFound):
		baseline = nil
	case err != nil:
		return nil, nil, storageError("find baseline statement", err)
	}

	var lines []*posting.Line
	if baseline != nil {
		s.BaselineID = baseline.ID
		s.TotalDebit = baseline.TotalDebit
		s.TotalCredit = baseline.TotalCredit
		lines, err = e.store.ListLinesInWindow(ctx, acct.ID, baseline.PstTime, ref)
	} else {
		lines, err = e.store.ListLinesUpTo(ctx, acct.ID, ref)
	}
	if err != nil {
		return nil, nil, storageError("load posting lines", err)
	}

	traces := make([]*trace.Trace, 0, len(lines))
	for i, l := range lines {
		if types.IsNegative(l.Debit) || types.IsNegative(l.Credit) {
			return nil, nil, fmt.Errorf("%w: line %s carries a negative amount", ErrInvalidInput, l.ID)
		}

		t := &trace.Trace{
			Entity:      types.NewEntityAt(now),
			ID:          id.NewTraceID(),
			StmtID:      s.ID,
			LineID:      l.ID,
			LinePstTime: l.PstTime,
			OprID:       l.OprID,
			AccountID:   acct.ID,
			Debit:       l.Debit,
			Credit:      l.Credit,
			LineHash:    l.Hash,
			Position:    i + 1,
		}
		if persist {
			if err := e.store.CreateTrace(ctx, t); err != nil {
				return nil, nil, storageError("save trace", err)
			}
		}

		s.TotalDebit = s.TotalDebit.Add(l.Debit)
		s.TotalCredit = s.TotalCredit.Add(l.Credit)
		if s.FirstTraceID.IsNil() {
			s.FirstTraceID = t.ID
		}
		s.LatestTraceID = t.ID
		traces = append(traces, t)
	}

	v := &stmt.View{Statement: s, Account: acct}
	if len(traces) > 0 {
		v.FirstTrace = traces[0]
		v.LatestTrace = traces[len(traces)-1]
	}
	return v, traces, nil
}

// decorate resolves the display form of a persisted statement.
func (e *Engine) decorate(ctx context.Context, s *stmt.Statement, acct *account.Account) (*stmt.View, error) {
	v := &stmt.View{Statement: s, Account: acct}

	if !s.FirstTraceID.IsNil() {
		t, err := e.store.GetTrace(ctx, s.FirstTraceID)
		if err != nil {
			return nil, storageError("load first trace", err)
		}
		v.FirstTrace = t
	}
	if !s.LatestTraceID.IsNil() {
		if s.LatestTraceID == s.FirstTraceID {
			v.LatestTrace = v.FirstTrace
		} else {
			t, err := e.store.GetTrace(ctx, s.LatestTraceID)
			if err != nil {
				return nil, storageError("load latest trace", err)
			}
			v.LatestTrace = t
		}
	}
	if !s.PostingID.IsNil() {
		p, err := e.store.GetPosting(ctx, s.PostingID)
		if err != nil {
			return nil, storageError("load closing posting", err)
		}
		v.Posting = p.Ref()
	}
	return v, nil
}
