package stmt

import (
	"context"
	"time"

	"github.com/xraph/postings/id"
)

type Store interface {
	// Create inserts a statement. (AccountID, SeqNbr) is unique.
	Create(ctx context.Context, s *Statement) error
	Get(ctx context.Context, stmtID id.StatementID) (*Statement, error)
	// GetLatestClosed returns the account's Closed statement with the
	// greatest pst_time strictly before before, ties broken by SeqNbr.
	GetLatestClosed(ctx context.Context, accountID id.AccountID, before time.Time) (*Statement, error)
	// MaxSeqNbr returns the highest sequence number used for the account,
	// zero when it has none.
	MaxSeqNbr(ctx context.Context, accountID id.AccountID) (int64, error)
	// Close transitions a Simulated statement to Closed and links the
	// sealing posting. It fails without writing when the statement is
	// missing or already Closed.
	Close(ctx context.Context, stmtID id.StatementID, postingID id.PostingID, closedAt time.Time) error
	List(ctx context.Context, accountID id.AccountID, opts ListOpts) ([]*Statement, error)
}

type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
