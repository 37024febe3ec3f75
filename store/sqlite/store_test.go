package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	postings "github.com/xraph/postings"
)

func TestMapInsertErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		dup  bool
	}{
		{"statement sequence", errors.New("UNIQUE constraint failed: postings_statements.account_id, postings_statements.stmt_seq_nbr"), true},
		{"primary key", errors.New("UNIQUE constraint failed: postings_postings.id"), true},
		{"not null", errors.New("NOT NULL constraint failed: postings_lines.account_id"), false},
		{"locked", errors.New("database is locked"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapInsertErr(tt.err)
			if got := errors.Is(err, postings.ErrAlreadyExists); got != tt.dup {
				t.Errorf("ErrAlreadyExists = %v, want %v", got, tt.dup)
			}
			if !errors.Is(err, tt.err) {
				t.Error("cause should stay in the chain")
			}
		})
	}

	if mapInsertErr(nil) != nil {
		t.Error("nil should stay nil")
	}
}

func TestIsNoRows(t *testing.T) {
	if !isNoRows(fmt.Errorf("scan: %w", sql.ErrNoRows)) {
		t.Error("wrapped sql.ErrNoRows should be detected")
	}
	if isNoRows(errors.New("no such table: postings_traces")) {
		t.Error("unrelated error reported as no rows")
	}
}
