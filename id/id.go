// Package id defines TypeID-based identity types for all postings entities.
//
// Every entity uses a single ID struct whose prefix names the entity type.
// IDs are K-sortable (UUIDv7-based), globally unique and URL-safe in the
// format "prefix_suffix", e.g. "pst_01h2xcejqtf2nbrexx3vqjhp41".
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all postings entity types.
const (
	PrefixLedger         Prefix = "ldg"   // Ledger
	PrefixChartOfAccount Prefix = "coa"   // Chart of accounts
	PrefixAccount        Prefix = "acct"  // Ledger account
	PrefixPosting        Prefix = "pst"   // Posting
	PrefixPostingLine    Prefix = "pline" // Posting line
	PrefixStatement      Prefix = "stmt"  // Account statement
	PrefixTrace          Prefix = "ptrc"  // Posting trace
)

// ID is the primary identifier type for all postings entities.
// The zero value is Nil and is used for absent optional references
// (parent account, antecedent posting, closing posting).
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string into an ID.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// ParseOptional parses an optional reference column. The empty string maps
// to Nil; anything else must carry the expected prefix.
func ParseOptional(s string, expected Prefix) (ID, error) {
	if s == "" {
		return Nil, nil
	}
	return ParseWithPrefix(s, expected)
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// ──────────────────────────────────────────────────
// Entity aliases
// ──────────────────────────────────────────────────

// LedgerID identifies a ledger (prefix: "ldg").
type LedgerID = ID

// ChartOfAccountID identifies a chart of accounts (prefix: "coa").
type ChartOfAccountID = ID

// AccountID identifies a ledger account (prefix: "acct").
type AccountID = ID

// PostingID identifies a posting (prefix: "pst").
type PostingID = ID

// PostingLineID identifies a posting line (prefix: "pline").
type PostingLineID = ID

// StatementID identifies an account statement (prefix: "stmt").
type StatementID = ID

// TraceID identifies a posting trace (prefix: "ptrc").
type TraceID = ID

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

// NewLedgerID generates a new unique ledger ID.
func NewLedgerID() ID { return New(PrefixLedger) }

// NewChartOfAccountID generates a new unique chart of accounts ID.
func NewChartOfAccountID() ID { return New(PrefixChartOfAccount) }

// NewAccountID generates a new unique ledger account ID.
func NewAccountID() ID { return New(PrefixAccount) }

// NewPostingID generates a new unique posting ID.
func NewPostingID() ID { return New(PrefixPosting) }

// NewPostingLineID generates a new unique posting line ID.
func NewPostingLineID() ID { return New(PrefixPostingLine) }

// NewStatementID generates a new unique statement ID.
func NewStatementID() ID { return New(PrefixStatement) }

// NewTraceID generates a new unique posting trace ID.
func NewTraceID() ID { return New(PrefixTrace) }

// ──────────────────────────────────────────────────
// Convenience parsers
// ──────────────────────────────────────────────────

// ParseLedgerID parses a string and validates the "ldg" prefix.
func ParseLedgerID(s string) (ID, error) { return ParseWithPrefix(s, PrefixLedger) }

// ParseChartOfAccountID parses a string and validates the "coa" prefix.
func ParseChartOfAccountID(s string) (ID, error) { return ParseWithPrefix(s, PrefixChartOfAccount) }

// ParseAccountID parses a string and validates the "acct" prefix.
func ParseAccountID(s string) (ID, error) { return ParseWithPrefix(s, PrefixAccount) }

// ParsePostingID parses a string and validates the "pst" prefix.
func ParsePostingID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPosting) }

// ParsePostingLineID parses a string and validates the "pline" prefix.
func ParsePostingLineID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPostingLine) }

// ParseStatementID parses a string and validates the "stmt" prefix.
func ParseStatementID(s string) (ID, error) { return ParseWithPrefix(s, PrefixStatement) }

// ParseTraceID parses a string and validates the "ptrc" prefix.
func ParseTraceID(s string) (ID, error) { return ParseWithPrefix(s, PrefixTrace) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer. Nil IDs are stored as NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
