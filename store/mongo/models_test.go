package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/postings/id"
	"github.com/xraph/postings/trace"
	"github.com/xraph/postings/types"
)

func TestMicrosKeepsSubMillisecondPrecision(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)
	got := fromMicros(toMicros(ts))
	want := ts.Truncate(time.Microsecond)
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}
	if toMicros(time.Time{}) != 0 || !fromMicros(0).IsZero() {
		t.Error("zero time should map to 0 and back")
	}
}

func TestTraceModelRoundTrip(t *testing.T) {
	tr := &trace.Trace{
		ID:          id.NewTraceID(),
		StmtID:      id.NewStatementID(),
		LineID:      id.NewPostingLineID(),
		LinePstTime: time.Date(2024, 5, 1, 12, 0, 0, 1000, time.UTC),
		OprID:       "op-7",
		AccountID:   id.NewAccountID(),
		Debit:       types.MustParseAmount("3.25"),
		Credit:      types.Zero,
		LineHash:    "h",
		Position:    2,
	}
	got, err := fromTraceModel(toTraceModel(tr))
	if err != nil {
		t.Fatalf("fromTraceModel: %v", err)
	}
	if got.ID != tr.ID || got.Position != 2 || !got.Debit.Equal(tr.Debit) {
		t.Errorf("got %+v", got)
	}
	if !got.LinePstTime.Equal(tr.LinePstTime) {
		t.Errorf("line pst time = %s", got.LinePstTime)
	}
}

func TestMigrationIndexesCoverQueries(t *testing.T) {
	idx := migrationIndexes()
	stmts := idx[colStatements]
	if len(stmts) == 0 {
		t.Fatal("no statement indexes")
	}
	if stmts[0].Options == nil {
		t.Error("statement sequence index must carry options")
	}
	keys, ok := stmts[0].Keys.(bson.D)
	if !ok || len(keys) != 2 || keys[0].Key != "account_id" || keys[1].Key != "stmt_seq_nbr" {
		t.Errorf("unexpected statement sequence index keys: %v", keys)
	}
	if len(idx[colLines]) != 2 {
		t.Errorf("lines indexes = %d, want 2", len(idx[colLines]))
	}
}
