package posting

import (
	"context"
	"time"

	"github.com/xraph/postings/id"
)

// Store persists postings together with their lines. Line queries return
// lines ordered by (pst_time, id) ascending.
type Store interface {
	// Create inserts the posting and all its lines.
	Create(ctx context.Context, p *Posting) error
	Get(ctx context.Context, postingID id.PostingID) (*Posting, error)
	// GetLatest returns the most recently recorded posting of the ledger
	// (record_time descending, id descending).
	GetLatest(ctx context.Context, ledgerID id.LedgerID) (*Posting, error)
	// List returns the ledger's postings in chain order (record_time ascending).
	List(ctx context.Context, ledgerID id.LedgerID, opts ListOpts) ([]*Posting, error)
	// ListLinesUpTo returns the account's lines with pst_time <= to.
	ListLinesUpTo(ctx context.Context, accountID id.AccountID, to time.Time) ([]*Line, error)
	// ListLinesInWindow returns the account's lines with from < pst_time <= to.
	ListLinesInWindow(ctx context.Context, accountID id.AccountID, from, to time.Time) ([]*Line, error)
}

type ListOpts struct {
	Limit  int
	Offset int
}
