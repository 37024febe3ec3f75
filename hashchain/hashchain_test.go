package hashchain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/postings/hashchain"
	"github.com/xraph/postings/id"
	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/types"
)

// chain is an in-memory antecedent source keyed by ledger.
type chain map[id.LedgerID]*posting.Posting

func (c chain) LatestPosting(_ context.Context, ledgerID id.LedgerID) (*posting.Posting, error) {
	return c[ledgerID], nil
}

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newPosting(ledgerID id.LedgerID, debit int64) *posting.Posting {
	cash, revenue := id.NewAccountID(), id.NewAccountID()
	return &posting.Posting{
		ID:         id.NewPostingID(),
		RecordUser: "alice",
		RecordTime: t0,
		OprID:      "op-1",
		OprTime:    t0,
		OprType:    "SALE",
		PstTime:    t0,
		Status:     posting.StatusPosted,
		Type:       posting.TypeBusinessTx,
		LedgerID:   ledgerID,
		ValTime:    t0,
		Lines: []*posting.Line{
			{ID: id.NewPostingLineID(), AccountID: cash, Debit: types.AmountFromInt(debit), Credit: types.Zero, PstTime: t0, OprID: "op-1"},
			{ID: id.NewPostingLineID(), AccountID: revenue, Debit: types.Zero, Credit: types.AmountFromInt(debit), PstTime: t0, OprID: "op-1"},
		},
	}
}

func TestComputeHashStable(t *testing.T) {
	p := newPosting(id.NewLedgerID(), 100)

	h1, err := hashchain.ComputeHash(p)
	if err != nil {
		t.Fatalf("ComputeHash: %v", err)
	}
	h2, err := hashchain.ComputeHash(p)
	if err != nil {
		t.Fatalf("ComputeHash: %v", err)
	}
	if h1 != h2 || len(h1) != 64 {
		t.Fatalf("unstable hash: %q vs %q", h1, h2)
	}

	// Attaching the hash, copying it to lines, changing amount scale or
	// time zone must not change the content hash.
	p.HashRecord.Hash = h1
	for _, l := range p.Lines {
		l.Hash = h1
	}
	p.Lines[0].Debit = types.MustParseAmount("100.00")
	p.PstTime = t0.In(time.FixedZone("CET", 3600))

	h3, err := hashchain.ComputeHash(p)
	if err != nil {
		t.Fatalf("ComputeHash: %v", err)
	}
	if h3 != h1 {
		t.Errorf("hash changed with equivalent content: %q != %q", h3, h1)
	}
}

func TestComputeHashCoversContent(t *testing.T) {
	base := newPosting(id.NewLedgerID(), 100)
	h0, err := hashchain.ComputeHash(base)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(p *posting.Posting)
	}{
		{"amount", func(p *posting.Posting) { p.Lines[0].Debit = types.AmountFromInt(101) }},
		{"pst_time", func(p *posting.Posting) { p.PstTime = p.PstTime.Add(time.Second) }},
		{"status", func(p *posting.Posting) { p.Status = posting.StatusProposed }},
		{"antecedent hash", func(p *posting.Posting) { p.HashRecord.AntecedentHash = "ab" }},
		{"line account", func(p *posting.Posting) { p.Lines[1].AccountID = id.NewAccountID() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp := *base
			cp.Lines = make([]*posting.Line, len(base.Lines))
			for i, l := range base.Lines {
				lc := *l
				cp.Lines[i] = &lc
			}
			tt.mutate(&cp)

			h, err := hashchain.ComputeHash(&cp)
			if err != nil {
				t.Fatal(err)
			}
			if h == h0 {
				t.Errorf("hash did not change after mutating %s", tt.name)
			}
		})
	}
}

func TestSealLinksChain(t *testing.T) {
	ctx := context.Background()
	ledgerID := id.NewLedgerID()
	src := chain{}
	b := hashchain.New(src)

	first := newPosting(ledgerID, 100)
	if err := b.Seal(ctx, first); err != nil {
		t.Fatalf("Seal genesis: %v", err)
	}
	if !first.IsGenesis() || first.HashRecord.AntecedentHash != "" {
		t.Errorf("genesis posting should have no antecedent: %+v", first.HashRecord)
	}
	for _, l := range first.Lines {
		if l.Hash != first.HashRecord.Hash || l.PostingID != first.ID {
			t.Errorf("line not stamped: %+v", l)
		}
	}
	src[ledgerID] = first

	second := newPosting(ledgerID, 50)
	if err := b.Seal(ctx, second); err != nil {
		t.Fatalf("Seal second: %v", err)
	}
	if second.HashRecord.AntecedentID != first.ID {
		t.Errorf("antecedent id: got %s, want %s", second.HashRecord.AntecedentID, first.ID)
	}
	if second.HashRecord.AntecedentHash != first.HashRecord.Hash {
		t.Errorf("antecedent hash mismatch")
	}
	if !second.RecordTime.After(first.RecordTime) {
		t.Errorf("record time %v not after antecedent %v", second.RecordTime, first.RecordTime)
	}

	recomputed, err := hashchain.ComputeHash(second)
	if err != nil {
		t.Fatal(err)
	}
	if recomputed != second.HashRecord.Hash {
		t.Error("stored hash differs from recomputed hash")
	}

	// Another ledger starts its own chain.
	other := newPosting(id.NewLedgerID(), 10)
	if err := b.Seal(ctx, other); err != nil {
		t.Fatal(err)
	}
	if !other.IsGenesis() {
		t.Error("posting in a fresh ledger should be genesis")
	}
}

func TestSealIncomplete(t *testing.T) {
	b := hashchain.New(chain{})

	tests := []struct {
		name   string
		mutate func(p *posting.Posting)
	}{
		{"nil id", func(p *posting.Posting) { p.ID = id.Nil }},
		{"nil ledger", func(p *posting.Posting) { p.LedgerID = id.Nil }},
		{"zero pst_time", func(p *posting.Posting) { p.PstTime = time.Time{} }},
		{"zero record_time", func(p *posting.Posting) { p.RecordTime = time.Time{} }},
		{"invalid type", func(p *posting.Posting) { p.Type = 0 }},
		{"line without account", func(p *posting.Posting) { p.Lines[0].AccountID = id.Nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPosting(id.NewLedgerID(), 1)
			tt.mutate(p)
			err := b.Seal(context.Background(), p)
			if !errors.Is(err, hashchain.ErrIncomplete) {
				t.Fatalf("expected ErrIncomplete, got %v", err)
			}
			if p.IsSealed() {
				t.Error("incomplete posting must not carry a hash")
			}
		})
	}
}

func TestSealSourceFailure(t *testing.T) {
	boom := errors.New("boom")
	b := hashchain.New(hashchain.AntecedentsFunc(func(context.Context, id.LedgerID) (*posting.Posting, error) {
		return nil, boom
	}))

	p := newPosting(id.NewLedgerID(), 1)
	if err := b.Seal(context.Background(), p); !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
	if p.IsSealed() {
		t.Error("posting must stay unsealed when the antecedent lookup fails")
	}
}
