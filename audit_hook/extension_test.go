package audithook_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	postings "github.com/xraph/postings"
	audithook "github.com/xraph/postings/audit_hook"
	"github.com/xraph/postings/id"
	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/stmt"
	"github.com/xraph/postings/types"
)

type captured struct {
	events []*audithook.AuditEvent
}

func (c *captured) recorder() audithook.Recorder {
	return audithook.RecorderFunc(func(_ context.Context, e *audithook.AuditEvent) error {
		c.events = append(c.events, e)
		return nil
	})
}

func samplePosting() *posting.Posting {
	acct := id.NewAccountID()
	return &posting.Posting{
		ID:       id.NewPostingID(),
		LedgerID: id.NewLedgerID(),
		OprID:    "op-1",
		PstTime:  time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Type:     posting.TypeBusinessTx,
		Lines: []*posting.Line{
			{AccountID: acct, Debit: types.AmountFromInt(5), Credit: types.Zero},
			{AccountID: acct, Debit: types.Zero, Credit: types.AmountFromInt(5)},
		},
		HashRecord: posting.HashRecord{Hash: "h1"},
	}
}

func TestExtensionRecordsLifecycle(t *testing.T) {
	c := &captured{}
	ext := audithook.New(c.recorder())
	ctx := context.Background()

	p := samplePosting()
	s := &stmt.Statement{ID: id.NewStatementID(), AccountID: id.NewAccountID(), SeqNbr: 1}

	_ = ext.OnPostingRecorded(ctx, p)
	_ = ext.OnStatementCreated(ctx, &stmt.View{Statement: s})
	_ = ext.OnStatementClosed(ctx, s, p)

	want := []string{
		audithook.ActionPostingRecorded,
		audithook.ActionStatementCreated,
		audithook.ActionStatementClosed,
	}
	if len(c.events) != len(want) {
		t.Fatalf("got %d events, want %d", len(c.events), len(want))
	}
	for i, action := range want {
		if c.events[i].Action != action {
			t.Errorf("event %d: got %q, want %q", i, c.events[i].Action, action)
		}
	}
	if c.events[0].ResourceID != p.ID.String() {
		t.Errorf("posting resource id = %q", c.events[0].ResourceID)
	}
	if c.events[0].Metadata["total_debit"] != "5" {
		t.Errorf("total_debit = %v", c.events[0].Metadata["total_debit"])
	}
	if c.events[2].Metadata["posting_id"] != p.ID.String() {
		t.Errorf("closing posting id = %v", c.events[2].Metadata["posting_id"])
	}
}

func TestExtensionFailureSeverity(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		severity string
		category string
	}{
		{"hash", errors.Join(postings.ErrHashComputationFailed, errors.New("incomplete")), audithook.SeverityCritical, audithook.CategoryIntegrity},
		{"storage", errors.Join(postings.ErrStorage, errors.New("down")), audithook.SeverityError, audithook.CategoryBookkeeping},
		{"conflict", postings.ErrStatementAlreadyClosed, audithook.SeverityWarning, audithook.CategoryBookkeeping},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &captured{}
			ext := audithook.New(c.recorder())
			_ = ext.OnOperationFailed(context.Background(), "close_stmt", tt.err)

			if len(c.events) != 1 {
				t.Fatalf("got %d events", len(c.events))
			}
			e := c.events[0]
			if e.Severity != tt.severity || e.Category != tt.category {
				t.Errorf("got %s/%s, want %s/%s", e.Severity, e.Category, tt.severity, tt.category)
			}
			if e.Outcome != audithook.OutcomeFailure || e.Reason == "" {
				t.Errorf("unexpected outcome %q reason %q", e.Outcome, e.Reason)
			}
		})
	}
}

func TestExtensionActionFilters(t *testing.T) {
	c := &captured{}
	ext := audithook.New(c.recorder(), audithook.WithDisabledActions(audithook.ActionPostingRecorded))
	ctx := context.Background()

	_ = ext.OnPostingRecorded(ctx, samplePosting())
	_ = ext.OnOperationFailed(ctx, "post", postings.ErrInvalidInput)
	if len(c.events) != 1 || c.events[0].Action != audithook.ActionOperationFailed {
		t.Fatalf("expected only the failure event, got %d", len(c.events))
	}

	c2 := &captured{}
	only := audithook.New(c2.recorder(), audithook.WithEnabledActions(audithook.ActionStatementClosed))
	_ = only.OnPostingRecorded(ctx, samplePosting())
	if len(c2.events) != 0 {
		t.Errorf("expected no events, got %d", len(c2.events))
	}
}

func TestExtensionSwallowsRecorderErrors(t *testing.T) {
	failing := audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	})
	ext := audithook.New(failing, audithook.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err := ext.OnPostingRecorded(context.Background(), samplePosting()); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
