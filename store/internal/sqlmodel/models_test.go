package sqlmodel

import (
	"testing"
	"time"

	"github.com/xraph/postings/account"
	"github.com/xraph/postings/id"
	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/stmt"
	"github.com/xraph/postings/trace"
	"github.com/xraph/postings/types"
)

func TestPostingModelKeepsLineOrder(t *testing.T) {
	pst := time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.FixedZone("CET", 3600))
	p := &posting.Posting{
		ID:         id.NewPostingID(),
		LedgerID:   id.NewLedgerID(),
		RecordUser: "ops",
		RecordTime: pst,
		OprID:      "op-1",
		OprTime:    pst,
		PstTime:    pst,
		ValTime:    pst,
		Status:     posting.StatusPosted,
		Type:       posting.TypeBusinessTx,
		HashRecord: posting.HashRecord{Hash: "abc"},
	}
	for i := range 3 {
		p.Lines = append(p.Lines, &posting.Line{
			ID:        id.NewPostingLineID(),
			AccountID: id.NewAccountID(),
			Debit:     types.AmountFromInt(int64(i)),
			Credit:    types.Zero,
			PstTime:   pst,
			OprID:     "op-1",
			Hash:      "abc",
		})
	}

	m, lines, err := ToPostingModel(p)
	if err != nil {
		t.Fatalf("ToPostingModel: %v", err)
	}
	if m.Status != "POSTED" || m.Type != "BUSI_TX" {
		t.Errorf("codes = %q/%q", m.Status, m.Type)
	}
	if m.DiscardedTime != nil {
		t.Error("zero discarded time should be stored as NULL")
	}
	if m.AntecedentID != "" {
		t.Errorf("genesis antecedent should be empty, got %q", m.AntecedentID)
	}

	got, err := FromPostingModel(m, lines)
	if err != nil {
		t.Fatalf("FromPostingModel: %v", err)
	}
	if len(got.Lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(got.Lines))
	}
	for i, l := range got.Lines {
		if l.ID != p.Lines[i].ID {
			t.Errorf("line %d out of order", i)
		}
		if l.PostingID != p.ID {
			t.Errorf("line %d posting id = %s", i, l.PostingID)
		}
		if !l.Debit.Equal(p.Lines[i].Debit) {
			t.Errorf("line %d debit = %s", i, l.Debit)
		}
	}
	if !got.PstTime.Equal(types.Timestamp(pst)) {
		t.Errorf("pst time = %s", got.PstTime)
	}
	if !got.IsGenesis() {
		t.Error("expected genesis posting")
	}
}

func TestStmtModelOptionalIDs(t *testing.T) {
	s := &stmt.Statement{
		ID:          id.NewStatementID(),
		AccountID:   id.NewAccountID(),
		PstTime:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:      stmt.StatusSimulated,
		TotalDebit:  types.MustParseAmount("10.50"),
		TotalCredit: types.Zero,
		SeqNbr:      4,
	}
	m, err := ToStmtModel(s)
	if err != nil {
		t.Fatalf("ToStmtModel: %v", err)
	}
	got, err := FromStmtModel(m)
	if err != nil {
		t.Fatalf("FromStmtModel: %v", err)
	}
	if !got.PostingID.IsNil() || !got.FirstTraceID.IsNil() || !got.BaselineID.IsNil() {
		t.Error("unset references should read back as nil IDs")
	}
	if !got.TotalDebit.Equal(s.TotalDebit) || got.SeqNbr != 4 {
		t.Errorf("got debit %s seq %d", got.TotalDebit, got.SeqNbr)
	}

	m.Status = "OPEN"
	if _, err := FromStmtModel(m); err == nil {
		t.Error("expected unmapped status code to fail")
	}
}

func TestAccountModelRejectsInvalidEnums(t *testing.T) {
	a := &account.Account{
		ID:       id.NewAccountID(),
		LedgerID: id.NewLedgerID(),
		CoAID:    id.NewChartOfAccountID(),
		Category: account.CategoryAsset,
	}
	if _, err := ToAccountModel(a); err == nil {
		t.Error("expected error for zero balance side")
	}
}

func TestTraceModelRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 987654321, time.UTC)
	tr := &trace.Trace{
		Entity:      types.NewEntityAt(at),
		ID:          id.NewTraceID(),
		StmtID:      id.NewStatementID(),
		LineID:      id.NewPostingLineID(),
		LinePstTime: at,
		OprID:       "op-7",
		AccountID:   id.NewAccountID(),
		Debit:       types.Zero,
		Credit:      types.MustParseAmount("0.05"),
		LineHash:    "feed",
		Position:    3,
	}

	m := ToTraceModel(tr)
	if m.Credit != "0.05" || m.Debit != "0" {
		t.Errorf("amounts = %q/%q", m.Debit, m.Credit)
	}

	got, err := FromTraceModel(m)
	if err != nil {
		t.Fatalf("FromTraceModel: %v", err)
	}
	if got.ID != tr.ID || got.StmtID != tr.StmtID || got.LineID != tr.LineID || got.AccountID != tr.AccountID {
		t.Error("identities changed in round trip")
	}
	if !got.Credit.Equal(tr.Credit) || got.Position != 3 || got.LineHash != "feed" {
		t.Errorf("got %+v", got)
	}
	if !got.LinePstTime.Equal(types.Timestamp(at)) {
		t.Errorf("line pst time = %s", got.LinePstTime)
	}

	m.Debit = "abc"
	if _, err := FromTraceModel(m); err == nil {
		t.Error("expected malformed amount to fail")
	}
}
