// Package audithook bridges postings lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit store. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	postings "github.com/xraph/postings"
	"github.com/xraph/postings/plugin"
	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/stmt"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Extension)(nil)
	_ plugin.OnPostingRecorded  = (*Extension)(nil)
	_ plugin.OnStatementCreated = (*Extension)(nil)
	_ plugin.OnStatementClosed  = (*Extension)(nil)
	_ plugin.OnOperationFailed  = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a backend-neutral audit record.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges postings lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Posting hooks
// ──────────────────────────────────────────────────

// OnPostingRecorded implements plugin.OnPostingRecorded.
func (e *Extension) OnPostingRecorded(ctx context.Context, p *posting.Posting) error {
	debit, credit := p.Totals()
	return e.record(ctx, ActionPostingRecorded, SeverityInfo, OutcomeSuccess,
		ResourcePosting, p.ID.String(), CategoryBookkeeping, nil,
		"ledger_id", p.LedgerID.String(),
		"opr_id", p.OprID,
		"type", p.Type.String(),
		"pst_time", p.PstTime,
		"lines", len(p.Lines),
		"total_debit", debit.String(),
		"total_credit", credit.String(),
		"hash", p.HashRecord.Hash,
		"antecedent_id", p.HashRecord.AntecedentID.String(),
	)
}

// ──────────────────────────────────────────────────
// Statement hooks
// ──────────────────────────────────────────────────

// OnStatementCreated implements plugin.OnStatementCreated.
func (e *Extension) OnStatementCreated(ctx context.Context, v *stmt.View) error {
	s := v.Statement
	return e.record(ctx, ActionStatementCreated, SeverityInfo, OutcomeSuccess,
		ResourceStatement, s.ID.String(), CategoryReporting, nil,
		"account_id", s.AccountID.String(),
		"pst_time", s.PstTime,
		"seq_nbr", s.SeqNbr,
		"baseline_id", s.BaselineID.String(),
		"total_debit", s.TotalDebit.String(),
		"total_credit", s.TotalCredit.String(),
	)
}

// OnStatementClosed implements plugin.OnStatementClosed.
func (e *Extension) OnStatementClosed(ctx context.Context, s *stmt.Statement, p *posting.Posting) error {
	return e.record(ctx, ActionStatementClosed, SeverityInfo, OutcomeSuccess,
		ResourceStatement, s.ID.String(), CategoryReporting, nil,
		"account_id", s.AccountID.String(),
		"posting_id", p.ID.String(),
		"ledger_id", p.LedgerID.String(),
		"hash", p.HashRecord.Hash,
	)
}

// ──────────────────────────────────────────────────
// Failure hooks
// ──────────────────────────────────────────────────

// OnOperationFailed implements plugin.OnOperationFailed. Hash failures are
// reported as critical since they leave a gap in the integrity record.
func (e *Extension) OnOperationFailed(ctx context.Context, op string, err error) error {
	severity, category := SeverityWarning, CategoryBookkeeping
	switch {
	case errors.Is(err, postings.ErrHashComputationFailed):
		severity, category = SeverityCritical, CategoryIntegrity
	case errors.Is(err, postings.ErrStorage):
		severity = SeverityError
	}
	return e.record(ctx, ActionOperationFailed, severity, OutcomeFailure,
		ResourceOperation, op, category, err,
		"operation", op,
	)
}

// record builds and sends an audit event if the action is enabled.
// Recorder failures are logged and never returned.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
