// Package observability provides a metrics plugin for the postings engine
// that records lifecycle event counts through a MetricFactory.
package observability

import (
	"context"
	"errors"

	postings "github.com/xraph/postings"
	"github.com/xraph/postings/plugin"
	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/stmt"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*MetricsExtension)(nil)
	_ plugin.OnInit             = (*MetricsExtension)(nil)
	_ plugin.OnPostingRecorded  = (*MetricsExtension)(nil)
	_ plugin.OnStatementCreated = (*MetricsExtension)(nil)
	_ plugin.OnStatementClosed  = (*MetricsExtension)(nil)
	_ plugin.OnOperationFailed  = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records engine-wide lifecycle metrics.
// Register it as a postings plugin to track posting and statement activity.
type MetricsExtension struct {
	factory MetricFactory

	// Posting metrics
	PostingRecorded   Counter
	BusinessPostings  Counter
	StatementPostings Counter
	PostingLines      Histogram

	// Statement metrics
	StatementCreated Counter
	StatementClosed  Counter
	StatementTraces  Histogram

	// Error metrics
	OperationFailures Counter
	StoreErrors       Counter
	ConflictErrors    Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Posting metrics
		PostingRecorded:   factory.Counter("postings.posting.recorded"),
		BusinessPostings:  factory.Counter("postings.posting.business"),
		StatementPostings: factory.Counter("postings.posting.statement"),
		PostingLines:      factory.Histogram("postings.posting.lines"),

		// Statement metrics
		StatementCreated: factory.Counter("postings.statement.created"),
		StatementClosed:  factory.Counter("postings.statement.closed"),
		StatementTraces:  factory.Histogram("postings.statement.traces"),

		// Error metrics
		OperationFailures: factory.Counter("postings.operation.failures"),
		StoreErrors:       factory.Counter("postings.store.errors"),
		ConflictErrors:    factory.Counter("postings.statement.conflicts"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Posting hooks
// ──────────────────────────────────────────────────

// OnPostingRecorded implements plugin.OnPostingRecorded.
func (m *MetricsExtension) OnPostingRecorded(_ context.Context, p *posting.Posting) error {
	m.PostingRecorded.Inc()
	if p.Type == posting.TypeBalanceStmt {
		m.StatementPostings.Inc()
	} else {
		m.BusinessPostings.Inc()
	}
	m.PostingLines.Observe(float64(len(p.Lines)))
	return nil
}

// ──────────────────────────────────────────────────
// Statement hooks
// ──────────────────────────────────────────────────

// OnStatementCreated implements plugin.OnStatementCreated.
func (m *MetricsExtension) OnStatementCreated(_ context.Context, v *stmt.View) error {
	m.StatementCreated.Inc()
	traces := 0
	if v.LatestTrace != nil {
		traces = v.LatestTrace.Position
	}
	m.StatementTraces.Observe(float64(traces))
	return nil
}

// OnStatementClosed implements plugin.OnStatementClosed.
func (m *MetricsExtension) OnStatementClosed(_ context.Context, _ *stmt.Statement, _ *posting.Posting) error {
	m.StatementClosed.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Failure hooks
// ──────────────────────────────────────────────────

// OnOperationFailed implements plugin.OnOperationFailed.
func (m *MetricsExtension) OnOperationFailed(_ context.Context, _ string, err error) error {
	m.OperationFailures.Inc()
	switch {
	case errors.Is(err, postings.ErrStorage):
		m.StoreErrors.Inc()
	case errors.Is(err, postings.ErrStatementAlreadyClosed), errors.Is(err, postings.ErrAlreadyExists):
		m.ConflictErrors.Inc()
	}
	return nil
}
