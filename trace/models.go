// Package trace defines posting traces: the audit record of one posting
// line's contribution to one statement aggregation pass.
package trace

import (
	"time"

	"github.com/xraph/postings/id"
	"github.com/xraph/postings/types"
)

// Trace is created once per line consumed while aggregating a statement
// and is never mutated or deleted. Position is the 1-based order of the
// line within the pass.
type Trace struct {
	types.Entity
	ID          id.TraceID       `json:"id"`
	StmtID      id.StatementID   `json:"stmt_id"`
	LineID      id.PostingLineID `json:"line_id"`
	LinePstTime time.Time        `json:"line_pst_time"`
	OprID       string           `json:"opr_id"`
	AccountID   id.AccountID     `json:"account_id"`
	Debit       types.Amount     `json:"debit"`
	Credit      types.Amount     `json:"credit"`
	LineHash    string           `json:"line_hash"`
	Position    int              `json:"position"`
}
