package postings

import (
	"context"
	"fmt"

	"github.com/xraph/postings/id"
	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/types"
)

// Post records an ordinary posting in its ledger's hash chain.
//
// The posting must name an existing ledger and carry at least one line;
// every line must reference an account of that ledger with non-negative
// amounts, and debits must equal credits. Missing identities are
// generated; line times and operation ids default to the posting's.
// RecordTime is set by the engine. The posting is sealed under the ledger
// lock, persisted, and must not be modified afterwards.
//
// Backdated lines are accepted. A line whose pst_time is at or before the
// pst_time of its account's latest Closed statement is never aggregated:
// later statements start from that Closed statement and only gather lines
// strictly after it. Such a line stays in the ledger and its hash chain.
func (e *Engine) Post(ctx context.Context, p *posting.Posting) error {
	if err := e.post(ctx, p); err != nil {
		return e.fail(ctx, "post", err)
	}
	return nil
}

func (e *Engine) post(ctx context.Context, p *posting.Posting) error {
	if err := e.preparePosting(p); err != nil {
		return err
	}

	if _, err := e.store.GetLedger(ctx, p.LedgerID); err != nil {
		return storageError("load ledger", err)
	}

	seen := make(map[id.AccountID]bool, len(p.Lines))
	for _, l := range p.Lines {
		if seen[l.AccountID] {
			continue
		}
		seen[l.AccountID] = true

		acct, err := e.store.GetAccount(ctx, l.AccountID)
		if err != nil {
			return storageError("load account", err)
		}
		if acct.LedgerID != p.LedgerID {
			return ValidationError{
				Field:   "lines.account_id",
				Message: fmt.Sprintf("account %s belongs to ledger %s", acct.ID, acct.LedgerID),
			}
		}
	}

	unlock, err := e.lock(ctx, ledgerLockKey(p.LedgerID))
	if err != nil {
		return err
	}
	defer unlock()

	now := e.now()
	p.RecordTime = now
	p.Entity = types.NewEntityAt(now)
	if p.OprTime.IsZero() {
		p.OprTime = now
	}
	if p.ValTime.IsZero() {
		p.ValTime = now
	}

	if err := e.seal(ctx, p); err != nil {
		return err
	}
	if err := e.store.CreatePosting(ctx, p); err != nil {
		return storageError("save posting", err)
	}

	e.plugins.EmitPostingRecorded(ctx, p)
	e.logger.Info("posting recorded",
		"posting_id", p.ID.String(),
		"ledger_id", p.LedgerID.String(),
		"lines", len(p.Lines),
		"hash", p.HashRecord.Hash,
	)
	return nil
}

// preparePosting validates caller input and fills defaults.
func (e *Engine) preparePosting(p *posting.Posting) error {
	if p == nil {
		return ValidationError{Field: "posting", Message: "required"}
	}
	if p.IsSealed() {
		return ValidationError{Field: "hash_record.hash", Message: "posting is already sealed"}
	}
	if p.LedgerID.IsNil() {
		return ValidationError{Field: "ledger_id", Message: "required"}
	}
	if p.PstTime.IsZero() {
		return ValidationError{Field: "pst_time", Message: "required"}
	}
	if len(p.Lines) == 0 {
		return ValidationError{Field: "lines", Message: "at least one line is required"}
	}

	if p.Status == 0 {
		p.Status = posting.StatusPosted
	}
	if p.Type == 0 {
		p.Type = posting.TypeBusinessTx
	}
	if !p.Status.Valid() {
		return ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %d", p.Status)}
	}
	if !p.Type.Valid() {
		return ValidationError{Field: "type", Message: fmt.Sprintf("unknown type %d", p.Type)}
	}
	if p.Type == posting.TypeBalanceStmt {
		return ValidationError{Field: "type", Message: "BAL_STMT postings are created by statement closes"}
	}

	if p.ID.IsNil() {
		p.ID = id.NewPostingID()
	}
	if p.RecordUser == "" {
		p.RecordUser = e.recordUser
	}
	p.PstTime = types.Timestamp(p.PstTime)
	p.OprTime = types.Timestamp(p.OprTime)
	p.ValTime = types.Timestamp(p.ValTime)
	p.DiscardedTime = types.Timestamp(p.DiscardedTime)

	debit, credit := types.Zero, types.Zero
	for i, l := range p.Lines {
		if l == nil {
			return ValidationError{Field: fmt.Sprintf("lines[%d]", i), Message: "nil line"}
		}
		if l.AccountID.IsNil() {
			return ValidationError{Field: fmt.Sprintf("lines[%d].account_id", i), Message: "required"}
		}
		if types.IsNegative(l.Debit) || types.IsNegative(l.Credit) {
			return ValidationError{Field: fmt.Sprintf("lines[%d]", i), Message: "amounts must not be negative"}
		}
		if l.ID.IsNil() {
			l.ID = id.NewPostingLineID()
		}
		if l.PstTime.IsZero() {
			l.PstTime = p.PstTime
		}
		l.PstTime = types.Timestamp(l.PstTime)
		if l.OprID == "" {
			l.OprID = p.OprID
		}
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}

	if !debit.Equal(credit) {
		return fmt.Errorf("%w: debit %s, credit %s", ErrUnbalancedPosting, debit, credit)
	}
	return nil
}

// GetPosting retrieves a posting with its lines.
func (e *Engine) GetPosting(ctx context.Context, postingID id.PostingID) (*posting.Posting, error) {
	p, err := e.store.GetPosting(ctx, postingID)
	if err != nil {
		return nil, storageError("load posting", err)
	}
	return p, nil
}

// ListPostings returns a ledger's postings in chain order.
func (e *Engine) ListPostings(ctx context.Context, ledgerID id.LedgerID, opts posting.ListOpts) ([]*posting.Posting, error) {
	list, err := e.store.ListPostings(ctx, ledgerID, opts)
	return list, storageError("list postings", err)
}
