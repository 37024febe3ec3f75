// Package posting defines postings, their lines and the hash record that
// chains each posting to its predecessor in the same ledger.
package posting

import (
	"time"

	"github.com/xraph/postings/id"
	"github.com/xraph/postings/types"
)

// Status is the posting status. The zero value is invalid.
type Status int

const (
	StatusDeferred Status = iota + 1
	StatusPosted
	StatusProposed
	StatusSimulated
	StatusTax
	StatusUnposted
	StatusCancelled
	StatusOther
)

// Statuses lists every valid posting status.
func Statuses() []Status {
	return []Status{
		StatusDeferred, StatusPosted, StatusProposed, StatusSimulated,
		StatusTax, StatusUnposted, StatusCancelled, StatusOther,
	}
}

func (s Status) String() string {
	switch s {
	case StatusDeferred:
		return "DEFERRED"
	case StatusPosted:
		return "POSTED"
	case StatusProposed:
		return "PROPOSED"
	case StatusSimulated:
		return "SIMULATED"
	case StatusTax:
		return "TAX"
	case StatusUnposted:
		return "UNPOSTED"
	case StatusCancelled:
		return "CANCELLED"
	case StatusOther:
		return "OTHER"
	default:
		return "Status(invalid)"
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s >= StatusDeferred && s <= StatusOther
}

// Type distinguishes ordinary business postings from the statement and
// closing postings the engine produces. The zero value is invalid.
type Type int

const (
	TypeBusinessTx Type = iota + 1
	TypeAdjustmentTx
	TypeBalanceStmt
	TypePnLStmt
	TypeBalanceSheetStmt
	TypeLedgerClosing
)

// Types lists every valid posting type.
func Types() []Type {
	return []Type{
		TypeBusinessTx, TypeAdjustmentTx, TypeBalanceStmt,
		TypePnLStmt, TypeBalanceSheetStmt, TypeLedgerClosing,
	}
}

func (t Type) String() string {
	switch t {
	case TypeBusinessTx:
		return "BUSI_TX"
	case TypeAdjustmentTx:
		return "ADJ_TX"
	case TypeBalanceStmt:
		return "BAL_STMT"
	case TypePnLStmt:
		return "PNL_STMT"
	case TypeBalanceSheetStmt:
		return "BS_STMT"
	case TypeLedgerClosing:
		return "LDG_CLSNG"
	default:
		return "Type(invalid)"
	}
}

// Valid reports whether t is a known posting type.
func (t Type) Valid() bool {
	return t >= TypeBusinessTx && t <= TypeLedgerClosing
}

// HashRecord links a posting into its ledger's hash chain. AntecedentID
// and AntecedentHash are copied values, empty for a ledger's first posting.
type HashRecord struct {
	Hash           string       `json:"hash"`
	AntecedentID   id.PostingID `json:"antecedent_id,omitzero"`
	AntecedentHash string       `json:"antecedent_hash,omitempty"`
}

// Posting is an immutable financial event. Once persisted with a hash it
// is never mutated.
type Posting struct {
	types.Entity
	ID            id.PostingID `json:"id"`
	RecordUser    string       `json:"record_user"`
	RecordTime    time.Time    `json:"record_time"`
	OprID         string       `json:"opr_id"`
	OprTime       time.Time    `json:"opr_time"`
	OprType       string       `json:"opr_type"`
	OprDetails    string       `json:"opr_details,omitempty"`
	OprSrc        string       `json:"opr_src,omitempty"`
	PstTime       time.Time    `json:"pst_time"`
	Status        Status       `json:"status"`
	Type          Type         `json:"type"`
	LedgerID      id.LedgerID  `json:"ledger_id"`
	ValTime       time.Time    `json:"val_time"`
	Lines         []*Line      `json:"lines"`
	DiscardedID   id.PostingID `json:"discarded_id,omitzero"`
	DiscardedTime time.Time    `json:"discarded_time,omitzero"`
	DiscardingID  id.PostingID `json:"discarding_id,omitzero"`
	HashRecord    HashRecord   `json:"hash_record"`
}

// Line is one debit/credit entry against one account. Hash is copied from
// the owning posting so traces can carry it without loading the posting.
type Line struct {
	ID        id.PostingLineID `json:"id"`
	PostingID id.PostingID     `json:"posting_id"`
	AccountID id.AccountID     `json:"account_id"`
	Debit     types.Amount     `json:"debit"`
	Credit    types.Amount     `json:"credit"`
	PstTime   time.Time        `json:"pst_time"`
	OprID     string           `json:"opr_id"`
	Hash      string           `json:"hash"`
}

// Ref is the minimal view of a posting attached to a statement: identity,
// ledger and effective time only.
type Ref struct {
	ID       id.PostingID `json:"id"`
	LedgerID id.LedgerID  `json:"ledger_id"`
	PstTime  time.Time    `json:"pst_time"`
}

// Ref returns the minimal reference to p.
func (p *Posting) Ref() *Ref {
	return &Ref{ID: p.ID, LedgerID: p.LedgerID, PstTime: p.PstTime}
}

// Totals sums the debit and credit amounts of all lines.
func (p *Posting) Totals() (debit, credit types.Amount) {
	debit, credit = types.Zero, types.Zero
	for _, l := range p.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// IsGenesis reports whether p has no antecedent in its ledger.
func (p *Posting) IsGenesis() bool {
	return p.HashRecord.AntecedentID.IsNil()
}

// IsSealed reports whether p carries its own content hash.
func (p *Posting) IsSealed() bool {
	return p.HashRecord.Hash != ""
}
