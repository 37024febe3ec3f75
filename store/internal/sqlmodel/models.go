// Package sqlmodel holds the grove models and converters shared by the
// postgres and sqlite stores.
package sqlmodel

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/postings/account"
	"github.com/xraph/postings/coa"
	"github.com/xraph/postings/id"
	"github.com/xraph/postings/ledger"
	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/stmt"
	"github.com/xraph/postings/store/codec"
	"github.com/xraph/postings/trace"
	"github.com/xraph/postings/types"
)

// ==================== Chart of account models ====================

type ChartModel struct {
	grove.BaseModel `grove:"table:postings_charts"`

	ID          string    `grove:"id,pk"`
	Name        string    `grove:"name"`
	Description string    `grove:"description"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func ToChartModel(c *coa.ChartOfAccount) *ChartModel {
	return &ChartModel{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func FromChartModel(m *ChartModel) (*coa.ChartOfAccount, error) {
	coaID, err := id.ParseChartOfAccountID(m.ID)
	if err != nil {
		return nil, err
	}
	return &coa.ChartOfAccount{
		Entity:      entity(m.CreatedAt, m.UpdatedAt),
		ID:          coaID,
		Name:        m.Name,
		Description: m.Description,
	}, nil
}

// ==================== Ledger models ====================

type LedgerModel struct {
	grove.BaseModel `grove:"table:postings_ledgers"`

	ID          string    `grove:"id,pk"`
	Name        string    `grove:"name"`
	CoAID       string    `grove:"coa_id"`
	Description string    `grove:"description"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func ToLedgerModel(l *ledger.Ledger) *LedgerModel {
	return &LedgerModel{
		ID:          l.ID.String(),
		Name:        l.Name,
		CoAID:       l.CoAID.String(),
		Description: l.Description,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func FromLedgerModel(m *LedgerModel) (*ledger.Ledger, error) {
	ledgerID, err := id.ParseLedgerID(m.ID)
	if err != nil {
		return nil, err
	}
	coaID, err := id.ParseChartOfAccountID(m.CoAID)
	if err != nil {
		return nil, err
	}
	return &ledger.Ledger{
		Entity:      entity(m.CreatedAt, m.UpdatedAt),
		ID:          ledgerID,
		Name:        m.Name,
		CoAID:       coaID,
		Description: m.Description,
	}, nil
}

// ==================== Account models ====================

type AccountModel struct {
	grove.BaseModel `grove:"table:postings_accounts"`

	ID          string    `grove:"id,pk"`
	Name        string    `grove:"name"`
	LedgerID    string    `grove:"ledger_id"`
	ParentID    string    `grove:"parent_id"`
	CoAID       string    `grove:"coa_id"`
	BalanceSide string    `grove:"balance_side"`
	Category    string    `grove:"category"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func ToAccountModel(a *account.Account) (*AccountModel, error) {
	side, err := codec.BalanceSide.Encode(a.BalanceSide)
	if err != nil {
		return nil, err
	}
	category, err := codec.Category.Encode(a.Category)
	if err != nil {
		return nil, err
	}
	return &AccountModel{
		ID:          a.ID.String(),
		Name:        a.Name,
		LedgerID:    a.LedgerID.String(),
		ParentID:    a.ParentID.String(),
		CoAID:       a.CoAID.String(),
		BalanceSide: side,
		Category:    category,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}, nil
}

func FromAccountModel(m *AccountModel) (*account.Account, error) {
	accountID, err := id.ParseAccountID(m.ID)
	if err != nil {
		return nil, err
	}
	ledgerID, err := id.ParseLedgerID(m.LedgerID)
	if err != nil {
		return nil, err
	}
	parentID, err := id.ParseOptional(m.ParentID, id.PrefixAccount)
	if err != nil {
		return nil, err
	}
	coaID, err := id.ParseChartOfAccountID(m.CoAID)
	if err != nil {
		return nil, err
	}
	side, err := codec.BalanceSide.Decode(m.BalanceSide)
	if err != nil {
		return nil, err
	}
	category, err := codec.Category.Decode(m.Category)
	if err != nil {
		return nil, err
	}
	return &account.Account{
		Entity:      entity(m.CreatedAt, m.UpdatedAt),
		ID:          accountID,
		Name:        m.Name,
		LedgerID:    ledgerID,
		ParentID:    parentID,
		CoAID:       coaID,
		BalanceSide: side,
		Category:    category,
	}, nil
}

// ==================== Posting models ====================

type PostingModel struct {
	grove.BaseModel `grove:"table:postings_postings"`

	ID             string     `grove:"id,pk"`
	LedgerID       string     `grove:"ledger_id"`
	RecordUser     string     `grove:"record_user"`
	RecordTime     time.Time  `grove:"record_time"`
	OprID          string     `grove:"opr_id"`
	OprTime        time.Time  `grove:"opr_time"`
	OprType        string     `grove:"opr_type"`
	OprDetails     string     `grove:"opr_details"`
	OprSrc         string     `grove:"opr_src"`
	PstTime        time.Time  `grove:"pst_time"`
	Status         string     `grove:"status"`
	Type           string     `grove:"type"`
	ValTime        time.Time  `grove:"val_time"`
	DiscardedID    string     `grove:"discarded_id"`
	DiscardedTime  *time.Time `grove:"discarded_time"`
	DiscardingID   string     `grove:"discarding_id"`
	Hash           string     `grove:"hash"`
	AntecedentID   string     `grove:"antecedent_id"`
	AntecedentHash string     `grove:"antecedent_hash"`
	CreatedAt      time.Time  `grove:"created_at"`
	UpdatedAt      time.Time  `grove:"updated_at"`
}

type LineModel struct {
	grove.BaseModel `grove:"table:postings_lines"`

	ID        string    `grove:"id,pk"`
	PostingID string    `grove:"posting_id"`
	LineNbr   int       `grove:"line_nbr"`
	AccountID string    `grove:"account_id"`
	Debit     string    `grove:"debit"`
	Credit    string    `grove:"credit"`
	PstTime   time.Time `grove:"pst_time"`
	OprID     string    `grove:"opr_id"`
	Hash      string    `grove:"hash"`
}

func ToPostingModel(p *posting.Posting) (*PostingModel, []LineModel, error) {
	status, err := codec.PostingStatus.Encode(p.Status)
	if err != nil {
		return nil, nil, err
	}
	typ, err := codec.PostingType.Encode(p.Type)
	if err != nil {
		return nil, nil, err
	}

	m := &PostingModel{
		ID:             p.ID.String(),
		LedgerID:       p.LedgerID.String(),
		RecordUser:     p.RecordUser,
		RecordTime:     types.Timestamp(p.RecordTime),
		OprID:          p.OprID,
		OprTime:        types.Timestamp(p.OprTime),
		OprType:        p.OprType,
		OprDetails:     p.OprDetails,
		OprSrc:         p.OprSrc,
		PstTime:        types.Timestamp(p.PstTime),
		Status:         status,
		Type:           typ,
		ValTime:        types.Timestamp(p.ValTime),
		DiscardedID:    p.DiscardedID.String(),
		DiscardedTime:  optionalTime(p.DiscardedTime),
		DiscardingID:   p.DiscardingID.String(),
		Hash:           p.HashRecord.Hash,
		AntecedentID:   p.HashRecord.AntecedentID.String(),
		AntecedentHash: p.HashRecord.AntecedentHash,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}

	lines := make([]LineModel, len(p.Lines))
	for i, l := range p.Lines {
		lines[i] = LineModel{
			ID:        l.ID.String(),
			PostingID: p.ID.String(),
			LineNbr:   i + 1,
			AccountID: l.AccountID.String(),
			Debit:     types.FormatAmount(l.Debit),
			Credit:    types.FormatAmount(l.Credit),
			PstTime:   types.Timestamp(l.PstTime),
			OprID:     l.OprID,
			Hash:      l.Hash,
		}
	}
	return m, lines, nil
}

func FromPostingModel(m *PostingModel, lines []LineModel) (*posting.Posting, error) {
	postingID, err := id.ParsePostingID(m.ID)
	if err != nil {
		return nil, err
	}
	ledgerID, err := id.ParseLedgerID(m.LedgerID)
	if err != nil {
		return nil, err
	}
	discardedID, err := id.ParseOptional(m.DiscardedID, id.PrefixPosting)
	if err != nil {
		return nil, err
	}
	discardingID, err := id.ParseOptional(m.DiscardingID, id.PrefixPosting)
	if err != nil {
		return nil, err
	}
	antecedentID, err := id.ParseOptional(m.AntecedentID, id.PrefixPosting)
	if err != nil {
		return nil, err
	}
	status, err := codec.PostingStatus.Decode(m.Status)
	if err != nil {
		return nil, err
	}
	typ, err := codec.PostingType.Decode(m.Type)
	if err != nil {
		return nil, err
	}

	p := &posting.Posting{
		Entity:        entity(m.CreatedAt, m.UpdatedAt),
		ID:            postingID,
		RecordUser:    m.RecordUser,
		RecordTime:    m.RecordTime.UTC(),
		OprID:         m.OprID,
		OprTime:       m.OprTime.UTC(),
		OprType:       m.OprType,
		OprDetails:    m.OprDetails,
		OprSrc:        m.OprSrc,
		PstTime:       m.PstTime.UTC(),
		Status:        status,
		Type:          typ,
		LedgerID:      ledgerID,
		ValTime:       m.ValTime.UTC(),
		Lines:         make([]*posting.Line, 0, len(lines)),
		DiscardedID:   discardedID,
		DiscardedTime: derefTime(m.DiscardedTime),
		DiscardingID:  discardingID,
		HashRecord: posting.HashRecord{
			Hash:           m.Hash,
			AntecedentID:   antecedentID,
			AntecedentHash: m.AntecedentHash,
		},
	}
	for i := range lines {
		l, err := FromLineModel(&lines[i])
		if err != nil {
			return nil, err
		}
		p.Lines = append(p.Lines, l)
	}
	return p, nil
}

func FromLineModel(m *LineModel) (*posting.Line, error) {
	lineID, err := id.ParsePostingLineID(m.ID)
	if err != nil {
		return nil, err
	}
	postingID, err := id.ParsePostingID(m.PostingID)
	if err != nil {
		return nil, err
	}
	accountID, err := id.ParseAccountID(m.AccountID)
	if err != nil {
		return nil, err
	}
	debit, err := types.ParseAmount(m.Debit)
	if err != nil {
		return nil, err
	}
	credit, err := types.ParseAmount(m.Credit)
	if err != nil {
		return nil, err
	}
	return &posting.Line{
		ID:        lineID,
		PostingID: postingID,
		AccountID: accountID,
		Debit:     debit,
		Credit:    credit,
		PstTime:   m.PstTime.UTC(),
		OprID:     m.OprID,
		Hash:      m.Hash,
	}, nil
}

// ==================== Statement models ====================

type StmtModel struct {
	grove.BaseModel `grove:"table:postings_statements"`

	ID            string    `grove:"id,pk"`
	AccountID     string    `grove:"account_id"`
	PstTime       time.Time `grove:"pst_time"`
	Status        string    `grove:"status"`
	TotalDebit    string    `grove:"total_debit"`
	TotalCredit   string    `grove:"total_credit"`
	PostingID     string    `grove:"posting_id"`
	FirstTraceID  string    `grove:"first_trace_id"`
	LatestTraceID string    `grove:"latest_trace_id"`
	SeqNbr        int64     `grove:"stmt_seq_nbr"`
	BaselineID    string    `grove:"baseline_id"`
	CreatedAt     time.Time `grove:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"`
}

func ToStmtModel(s *stmt.Statement) (*StmtModel, error) {
	status, err := codec.StmtStatus.Encode(s.Status)
	if err != nil {
		return nil, err
	}
	return &StmtModel{
		ID:            s.ID.String(),
		AccountID:     s.AccountID.String(),
		PstTime:       types.Timestamp(s.PstTime),
		Status:        status,
		TotalDebit:    types.FormatAmount(s.TotalDebit),
		TotalCredit:   types.FormatAmount(s.TotalCredit),
		PostingID:     s.PostingID.String(),
		FirstTraceID:  s.FirstTraceID.String(),
		LatestTraceID: s.LatestTraceID.String(),
		SeqNbr:        s.SeqNbr,
		BaselineID:    s.BaselineID.String(),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}, nil
}

func FromStmtModel(m *StmtModel) (*stmt.Statement, error) {
	stmtID, err := id.ParseStatementID(m.ID)
	if err != nil {
		return nil, err
	}
	accountID, err := id.ParseAccountID(m.AccountID)
	if err != nil {
		return nil, err
	}
	status, err := codec.StmtStatus.Decode(m.Status)
	if err != nil {
		return nil, err
	}
	debit, err := types.ParseAmount(m.TotalDebit)
	if err != nil {
		return nil, err
	}
	credit, err := types.ParseAmount(m.TotalCredit)
	if err != nil {
		return nil, err
	}
	postingID, err := id.ParseOptional(m.PostingID, id.PrefixPosting)
	if err != nil {
		return nil, err
	}
	firstID, err := id.ParseOptional(m.FirstTraceID, id.PrefixTrace)
	if err != nil {
		return nil, err
	}
	latestID, err := id.ParseOptional(m.LatestTraceID, id.PrefixTrace)
	if err != nil {
		return nil, err
	}
	baselineID, err := id.ParseOptional(m.BaselineID, id.PrefixStatement)
	if err != nil {
		return nil, err
	}
	return &stmt.Statement{
		Entity:        entity(m.CreatedAt, m.UpdatedAt),
		ID:            stmtID,
		AccountID:     accountID,
		PstTime:       m.PstTime.UTC(),
		Status:        status,
		TotalDebit:    debit,
		TotalCredit:   credit,
		PostingID:     postingID,
		FirstTraceID:  firstID,
		LatestTraceID: latestID,
		SeqNbr:        m.SeqNbr,
		BaselineID:    baselineID,
	}, nil
}

// ==================== Trace models ====================

type TraceModel struct {
	grove.BaseModel `grove:"table:postings_traces"`

	ID          string    `grove:"id,pk"`
	StmtID      string    `grove:"stmt_id"`
	LineID      string    `grove:"line_id"`
	LinePstTime time.Time `grove:"line_pst_time"`
	OprID       string    `grove:"opr_id"`
	AccountID   string    `grove:"account_id"`
	Debit       string    `grove:"debit"`
	Credit      string    `grove:"credit"`
	LineHash    string    `grove:"line_hash"`
	Position    int       `grove:"position"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func ToTraceModel(t *trace.Trace) *TraceModel {
	return &TraceModel{
		ID:          t.ID.String(),
		StmtID:      t.StmtID.String(),
		LineID:      t.LineID.String(),
		LinePstTime: types.Timestamp(t.LinePstTime),
		OprID:       t.OprID,
		AccountID:   t.AccountID.String(),
		Debit:       types.FormatAmount(t.Debit),
		Credit:      types.FormatAmount(t.Credit),
		LineHash:    t.LineHash,
		Position:    t.Position,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func FromTraceModel(m *TraceModel) (*trace.Trace, error) {
	traceID, err := id.ParseTraceID(m.ID)
	if err != nil {
		return nil, err
	}
	stmtID, err := id.ParseStatementID(m.StmtID)
	if err != nil {
		return nil, err
	}
	lineID, err := id.ParsePostingLineID(m.LineID)
	if err != nil {
		return nil, err
	}
	accountID, err := id.ParseAccountID(m.AccountID)
	if err != nil {
		return nil, err
	}
	debit, err := types.ParseAmount(m.Debit)
	if err != nil {
		return nil, err
	}
	credit, err := types.ParseAmount(m.Credit)
	if err != nil {
		return nil, err
	}
	return &trace.Trace{
		Entity:      entity(m.CreatedAt, m.UpdatedAt),
		ID:          traceID,
		StmtID:      stmtID,
		LineID:      lineID,
		LinePstTime: m.LinePstTime.UTC(),
		OprID:       m.OprID,
		AccountID:   accountID,
		Debit:       debit,
		Credit:      credit,
		LineHash:    m.LineHash,
		Position:    m.Position,
	}, nil
}

// ==================== Helpers ====================

func entity(createdAt, updatedAt time.Time) types.Entity {
	return types.Entity{
		CreatedAt: createdAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	ts := types.Timestamp(t)
	return &ts
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
