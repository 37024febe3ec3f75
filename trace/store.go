package trace

import (
	"context"

	"github.com/xraph/postings/id"
)

type Store interface {
	Create(ctx context.Context, t *Trace) error
	Get(ctx context.Context, traceID id.TraceID) (*Trace, error)
	// List returns the statement's traces ordered by Position.
	List(ctx context.Context, stmtID id.StatementID) ([]*Trace, error)
}
