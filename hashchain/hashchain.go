// Package hashchain builds the tamper-evident chain that links every
// posting of a ledger to its predecessor.
//
// A posting's hash is the SHA-256 of a canonical JSON rendering of its
// content, antecedent link included and its own hash excluded. Times are
// rendered in UTC with RFC 3339 nanosecond layout and amounts in canonical
// decimal form, so identical content always hashes identically. Only
// construction is provided; the chain is not verified here.
package hashchain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/postings/id"
	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/types"
)

// ErrIncomplete is returned when a posting lacks the information needed
// to hash it.
var ErrIncomplete = errors.New("hashchain: posting incomplete")

// Antecedents finds the most recently recorded posting of a ledger.
// It returns (nil, nil) when the ledger has no postings yet.
type Antecedents interface {
	LatestPosting(ctx context.Context, ledgerID id.LedgerID) (*posting.Posting, error)
}

// AntecedentsFunc adapts a function to Antecedents.
type AntecedentsFunc func(ctx context.Context, ledgerID id.LedgerID) (*posting.Posting, error)

// LatestPosting implements Antecedents.
func (f AntecedentsFunc) LatestPosting(ctx context.Context, ledgerID id.LedgerID) (*posting.Posting, error) {
	return f(ctx, ledgerID)
}

// Builder links and seals postings against an antecedent source.
type Builder struct {
	src Antecedents
}

// New returns a Builder reading antecedents from src.
func New(src Antecedents) *Builder {
	return &Builder{src: src}
}

// Link sets p's antecedent to the ledger's most recent posting. A genesis
// posting keeps empty antecedent fields. RecordTime is moved to one
// microsecond after the antecedent's when it is not strictly later, so
// record time totally orders the chain.
func (b *Builder) Link(ctx context.Context, p *posting.Posting) error {
	if p.LedgerID.IsNil() {
		return fmt.Errorf("%w: ledger id is nil", ErrIncomplete)
	}

	prev, err := b.src.LatestPosting(ctx, p.LedgerID)
	if err != nil {
		return fmt.Errorf("hashchain: find antecedent for ledger %s: %w", p.LedgerID, err)
	}

	if prev == nil {
		p.HashRecord.AntecedentID = id.Nil
		p.HashRecord.AntecedentHash = ""
		return nil
	}
	if prev.HashRecord.Hash == "" {
		return fmt.Errorf("%w: antecedent %s carries no hash", ErrIncomplete, prev.ID)
	}

	p.HashRecord.AntecedentID = prev.ID
	p.HashRecord.AntecedentHash = prev.HashRecord.Hash
	if !p.RecordTime.After(prev.RecordTime) {
		p.RecordTime = types.Timestamp(prev.RecordTime.Add(time.Microsecond))
	}
	return nil
}

// Seal links p, computes its hash and copies the hash onto every line.
// On error p carries no hash and must not be persisted.
func (b *Builder) Seal(ctx context.Context, p *posting.Posting) error {
	p.HashRecord.Hash = ""
	if err := Validate(p); err != nil {
		return err
	}
	if err := b.Link(ctx, p); err != nil {
		return err
	}

	h, err := ComputeHash(p)
	if err != nil {
		return err
	}

	p.HashRecord.Hash = h
	for _, l := range p.Lines {
		l.PostingID = p.ID
		l.Hash = h
	}
	return nil
}

// Validate reports ErrIncomplete when p cannot be hashed.
func Validate(p *posting.Posting) error {
	switch {
	case p == nil:
		return fmt.Errorf("%w: nil posting", ErrIncomplete)
	case p.ID.IsNil():
		return fmt.Errorf("%w: id is nil", ErrIncomplete)
	case p.LedgerID.IsNil():
		return fmt.Errorf("%w: ledger id is nil", ErrIncomplete)
	case p.PstTime.IsZero():
		return fmt.Errorf("%w: pst_time is zero", ErrIncomplete)
	case p.RecordTime.IsZero():
		return fmt.Errorf("%w: record_time is zero", ErrIncomplete)
	case !p.Status.Valid():
		return fmt.Errorf("%w: invalid status %d", ErrIncomplete, p.Status)
	case !p.Type.Valid():
		return fmt.Errorf("%w: invalid type %d", ErrIncomplete, p.Type)
	}

	for i, l := range p.Lines {
		if l == nil || l.ID.IsNil() || l.AccountID.IsNil() {
			return fmt.Errorf("%w: line %d lacks id or account", ErrIncomplete, i)
		}
	}
	return nil
}

// ComputeHash returns the hex SHA-256 of p's canonical form.
func ComputeHash(p *posting.Posting) (string, error) {
	b, err := Canonical(p)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Canonical renders p's hashed content. The posting's own hash and the
// hashes copied onto its lines are excluded.
func Canonical(p *posting.Posting) ([]byte, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}

	c := canonicalPosting{
		ID:             p.ID.String(),
		RecordUser:     p.RecordUser,
		RecordTime:     canonicalTime(p.RecordTime),
		OprID:          p.OprID,
		OprTime:        canonicalTime(p.OprTime),
		OprType:        p.OprType,
		OprDetails:     p.OprDetails,
		OprSrc:         p.OprSrc,
		PstTime:        canonicalTime(p.PstTime),
		Status:         p.Status.String(),
		Type:           p.Type.String(),
		LedgerID:       p.LedgerID.String(),
		ValTime:        canonicalTime(p.ValTime),
		DiscardedID:    p.DiscardedID.String(),
		DiscardedTime:  canonicalTime(p.DiscardedTime),
		DiscardingID:   p.DiscardingID.String(),
		AntecedentID:   p.HashRecord.AntecedentID.String(),
		AntecedentHash: p.HashRecord.AntecedentHash,
		Lines:          make([]canonicalLine, 0, len(p.Lines)),
	}
	for _, l := range p.Lines {
		c.Lines = append(c.Lines, canonicalLine{
			ID:        l.ID.String(),
			AccountID: l.AccountID.String(),
			Debit:     types.FormatAmount(l.Debit),
			Credit:    types.FormatAmount(l.Credit),
			PstTime:   canonicalTime(l.PstTime),
			OprID:     l.OprID,
		})
	}

	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("hashchain: encode posting %s: %w", p.ID, err)
	}
	return b, nil
}

// Field order is part of the hash; never reorder.
type canonicalPosting struct {
	ID             string          `json:"id"`
	RecordUser     string          `json:"record_user"`
	RecordTime     string          `json:"record_time"`
	OprID          string          `json:"opr_id"`
	OprTime        string          `json:"opr_time"`
	OprType        string          `json:"opr_type"`
	OprDetails     string          `json:"opr_details"`
	OprSrc         string          `json:"opr_src"`
	PstTime        string          `json:"pst_time"`
	Status         string          `json:"status"`
	Type           string          `json:"type"`
	LedgerID       string          `json:"ledger_id"`
	ValTime        string          `json:"val_time"`
	DiscardedID    string          `json:"discarded_id"`
	DiscardedTime  string          `json:"discarded_time"`
	DiscardingID   string          `json:"discarding_id"`
	AntecedentID   string          `json:"antecedent_id"`
	AntecedentHash string          `json:"antecedent_hash"`
	Lines          []canonicalLine `json:"lines"`
}

type canonicalLine struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Debit     string `json:"debit"`
	Credit    string `json:"credit"`
	PstTime   string `json:"pst_time"`
	OprID     string `json:"opr_id"`
}

func canonicalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return types.Timestamp(t).Format(time.RFC3339Nano)
}
