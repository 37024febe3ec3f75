// Package stmt defines account statements: point-in-time balance
// snapshots that are Simulated until sealed by a closing posting.
package stmt

import (
	"time"

	"github.com/xraph/postings/account"
	"github.com/xraph/postings/id"
	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/trace"
	"github.com/xraph/postings/types"
)

// Status is the statement lifecycle state. Closed is terminal.
// The zero value is invalid.
type Status int

const (
	StatusSimulated Status = iota + 1
	StatusClosed
)

// Statuses lists every valid statement status.
func Statuses() []Status {
	return []Status{StatusSimulated, StatusClosed}
}

func (s Status) String() string {
	switch s {
	case StatusSimulated:
		return "SIMULATED"
	case StatusClosed:
		return "CLOSED"
	default:
		return "Status(invalid)"
	}
}

// Valid reports whether s is a known statement status.
func (s Status) Valid() bool {
	return s == StatusSimulated || s == StatusClosed
}

// Statement is a snapshot of one account at one effective time.
//
// FirstTraceID points at the first trace produced by the aggregation pass
// that built the statement; LatestTraceID at the last one. Both are Nil
// when the pass consumed no lines. SeqNbr is assigned on persistence and
// is unique per account. BaselineID names the Closed statement whose
// totals seeded this one, Nil when aggregation started from zero.
type Statement struct {
	types.Entity
	ID            id.StatementID `json:"id"`
	AccountID     id.AccountID   `json:"account_id"`
	PstTime       time.Time      `json:"pst_time"`
	Status        Status         `json:"status"`
	TotalDebit    types.Amount   `json:"total_debit"`
	TotalCredit   types.Amount   `json:"total_credit"`
	PostingID     id.PostingID   `json:"posting_id,omitzero"`
	FirstTraceID  id.TraceID     `json:"first_trace_id,omitzero"`
	LatestTraceID id.TraceID     `json:"latest_trace_id,omitzero"`
	SeqNbr        int64          `json:"seq_nbr"`
	BaselineID    id.StatementID `json:"baseline_id,omitzero"`
}

// IsClosed reports whether the statement is sealed.
func (s *Statement) IsClosed() bool {
	return s.Status == StatusClosed
}

// Balance returns the signed balance as seen from side. Dr accounts (and
// DrCr accounts) report debit minus credit; Cr accounts credit minus debit.
func (s *Statement) Balance(side account.BalanceSide) types.Amount {
	if side == account.BalanceSideCr {
		return s.TotalCredit.Sub(s.TotalDebit)
	}
	return s.TotalDebit.Sub(s.TotalCredit)
}

// View is a statement decorated for display with its account, the traces
// its pointers reference and, once closed, a reference to the sealing
// posting. ClosingPosting carries the full sealed posting and is only set
// on the view returned by the close that produced it.
type View struct {
	Statement      *Statement       `json:"statement"`
	Account        *account.Account `json:"account"`
	FirstTrace     *trace.Trace     `json:"first_trace,omitempty"`
	LatestTrace    *trace.Trace     `json:"latest_trace,omitempty"`
	Posting        *posting.Ref     `json:"posting,omitempty"`
	ClosingPosting *posting.Posting `json:"closing_posting,omitempty"`
}
