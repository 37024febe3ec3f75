package mongo

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

type chartModel struct {
	grove.BaseModel `grove:"table:postings_charts"`

	ID          string    `grove:"id,pk" bson:"_id"`
	Name        string    `grove:"name" bson:"name"`
	Description string    `grove:"description" bson:"description"`
	CreatedAt   time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at" bson:"updated_at"`
}

func toChartModel(c *coa.ChartOfAccount) *chartModel {
	return &chartModel{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func fromChartModel(m *chartModel) (*coa.ChartOfAccount, error) {
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

type ledgerModel struct {
	grove.BaseModel `grove:"table:postings_ledgers"`

	ID          string    `grove:"id,pk" bson:"_id"`
	Name        string    `grove:"name" bson:"name"`
	CoAID       string    `grove:"coa_id" bson:"coa_id"`
	Description string    `grove:"description" bson:"description"`
	CreatedAt   time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at" bson:"updated_at"`
}

func toLedgerModel(l *ledger.Ledger) *ledgerModel {
	return &ledgerModel{
		ID:          l.ID.String(),
		Name:        l.Name,
		CoAID:       l.CoAID.String(),
		Description: l.Description,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func fromLedgerModel(m *ledgerModel) (*ledger.Ledger, error) {
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

type accountModel struct {
	grove.BaseModel `grove:"table:postings_accounts"`

	ID          string    `grove:"id,pk" bson:"_id"`
	Name        string    `grove:"name" bson:"name"`
	LedgerID    string    `grove:"ledger_id" bson:"ledger_id"`
	ParentID    string    `grove:"parent_id" bson:"parent_id"`
	CoAID       string    `grove:"coa_id" bson:"coa_id"`
	BalanceSide string    `grove:"balance_side" bson:"balance_side"`
	Category    string    `grove:"category" bson:"category"`
	CreatedAt   time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at" bson:"updated_at"`
}

func toAccountModel(a *account.Account) (*accountModel, error) {
	side, err := codec.BalanceSide.Encode(a.BalanceSide)
	if err != nil {
		return nil, err
	}
	category, err := codec.Category.Encode(a.Category)
	if err != nil {
		return nil, err
	}
	return &accountModel{
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

func fromAccountModel(m *accountModel) (*account.Account, error) {
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

type postingModel struct {
	grove.BaseModel `grove:"table:postings_postings"`

	ID             string    `grove:"id,pk" bson:"_id"`
	LedgerID       string    `grove:"ledger_id" bson:"ledger_id"`
	RecordUser     string    `grove:"record_user" bson:"record_user"`
	RecordTime     int64     `grove:"record_time" bson:"record_time"`
	OprID          string    `grove:"opr_id" bson:"opr_id"`
	OprTime        int64     `grove:"opr_time" bson:"opr_time"`
	OprType        string    `grove:"opr_type" bson:"opr_type"`
	OprDetails     string    `grove:"opr_details" bson:"opr_details"`
	OprSrc         string    `grove:"opr_src" bson:"opr_src"`
	PstTime        int64     `grove:"pst_time" bson:"pst_time"`
	Status         string    `grove:"status" bson:"status"`
	Type           string    `grove:"type" bson:"type"`
	ValTime        int64     `grove:"val_time" bson:"val_time"`
	DiscardedID    string    `grove:"discarded_id" bson:"discarded_id"`
	DiscardedTime  int64     `grove:"discarded_time" bson:"discarded_time"`
	DiscardingID   string    `grove:"discarding_id" bson:"discarding_id"`
	Hash           string    `grove:"hash" bson:"hash"`
	AntecedentID   string    `grove:"antecedent_id" bson:"antecedent_id"`
	AntecedentHash string    `grove:"antecedent_hash" bson:"antecedent_hash"`
	CreatedAt      time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `grove:"updated_at" bson:"updated_at"`
}

type lineModel struct {
	grove.BaseModel `grove:"table:postings_lines"`

	ID        string `grove:"id,pk" bson:"_id"`
	PostingID string `grove:"posting_id" bson:"posting_id"`
	LineNbr   int    `grove:"line_nbr" bson:"line_nbr"`
	AccountID string `grove:"account_id" bson:"account_id"`
	Debit     string `grove:"debit" bson:"debit"`
	Credit    string `grove:"credit" bson:"credit"`
	PstTime   int64  `grove:"pst_time" bson:"pst_time"`
	OprID     string `grove:"opr_id" bson:"opr_id"`
	Hash      string `grove:"hash" bson:"hash"`
}

func toPostingModel(p *posting.Posting) (*postingModel, []lineModel, error) {
	status, err := codec.PostingStatus.Encode(p.Status)
	if err != nil {
		return nil, nil, err
	}
	typ, err := codec.PostingType.Encode(p.Type)
	if err != nil {
		return nil, nil, err
	}

	m := &postingModel{
		ID:             p.ID.String(),
		LedgerID:       p.LedgerID.String(),
		RecordUser:     p.RecordUser,
		RecordTime:     toMicros(p.RecordTime),
		OprID:          p.OprID,
		OprTime:        toMicros(p.OprTime),
		OprType:        p.OprType,
		OprDetails:     p.OprDetails,
		OprSrc:         p.OprSrc,
		PstTime:        toMicros(p.PstTime),
		Status:         status,
		Type:           typ,
		ValTime:        toMicros(p.ValTime),
		DiscardedID:    p.DiscardedID.String(),
		DiscardedTime:  toMicros(p.DiscardedTime),
		DiscardingID:   p.DiscardingID.String(),
		Hash:           p.HashRecord.Hash,
		AntecedentID:   p.HashRecord.AntecedentID.String(),
		AntecedentHash: p.HashRecord.AntecedentHash,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}

	lines := make([]lineModel, len(p.Lines))
	for i, l := range p.Lines {
		lines[i] = lineModel{
			ID:        l.ID.String(),
			PostingID: p.ID.String(),
			LineNbr:   i + 1,
			AccountID: l.AccountID.String(),
			Debit:     types.FormatAmount(l.Debit),
			Credit:    types.FormatAmount(l.Credit),
			PstTime:   toMicros(l.PstTime),
			OprID:     l.OprID,
			Hash:      l.Hash,
		}
	}
	return m, lines, nil
}

func fromPostingModel(m *postingModel, lines []lineModel) (*posting.Posting, error) {
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
		RecordTime:    fromMicros(m.RecordTime),
		OprID:         m.OprID,
		OprTime:       fromMicros(m.OprTime),
		OprType:       m.OprType,
		OprDetails:    m.OprDetails,
		OprSrc:        m.OprSrc,
		PstTime:       fromMicros(m.PstTime),
		Status:        status,
		Type:          typ,
		LedgerID:      ledgerID,
		ValTime:       fromMicros(m.ValTime),
		Lines:         make([]*posting.Line, 0, len(lines)),
		DiscardedID:   discardedID,
		DiscardedTime: fromMicros(m.DiscardedTime),
		DiscardingID:  discardingID,
		HashRecord: posting.HashRecord{
			Hash:           m.Hash,
			AntecedentID:   antecedentID,
			AntecedentHash: m.AntecedentHash,
		},
	}
	for i := range lines {
		l, err := fromLineModel(&lines[i])
		if err != nil {
			return nil, err
		}
		p.Lines = append(p.Lines, l)
	}
	return p, nil
}

func fromLineModel(m *lineModel) (*posting.Line, error) {
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
		PstTime:   fromMicros(m.PstTime),
		OprID:     m.OprID,
		Hash:      m.Hash,
	}, nil
}

// ==================== Statement models ====================

type stmtModel struct {
	grove.BaseModel `grove:"table:postings_statements"`

	ID            string    `grove:"id,pk" bson:"_id"`
	AccountID     string    `grove:"account_id" bson:"account_id"`
	PstTime       int64     `grove:"pst_time" bson:"pst_time"`
	Status        string    `grove:"status" bson:"status"`
	TotalDebit    string    `grove:"total_debit" bson:"total_debit"`
	TotalCredit   string    `grove:"total_credit" bson:"total_credit"`
	PostingID     string    `grove:"posting_id" bson:"posting_id"`
	FirstTraceID  string    `grove:"first_trace_id" bson:"first_trace_id"`
	LatestTraceID string    `grove:"latest_trace_id" bson:"latest_trace_id"`
	SeqNbr        int64     `grove:"stmt_seq_nbr" bson:"stmt_seq_nbr"`
	BaselineID    string    `grove:"baseline_id" bson:"baseline_id"`
	CreatedAt     time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at" bson:"updated_at"`
}

func toStmtModel(s *stmt.Statement) (*stmtModel, error) {
	status, err := codec.StmtStatus.Encode(s.Status)
	if err != nil {
		return nil, err
	}
	return &stmtModel{
		ID:            s.ID.String(),
		AccountID:     s.AccountID.String(),
		PstTime:       toMicros(s.PstTime),
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

func fromStmtModel(m *stmtModel) (*stmt.Statement, error) {
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
		PstTime:       fromMicros(m.PstTime),
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

type traceModel struct {
	grove.BaseModel `grove:"table:postings_traces"`

	ID          string    `grove:"id,pk" bson:"_id"`
	StmtID      string    `grove:"stmt_id" bson:"stmt_id"`
	LineID      string    `grove:"line_id" bson:"line_id"`
	LinePstTime int64     `grove:"line_pst_time" bson:"line_pst_time"`
	OprID       string    `grove:"opr_id" bson:"opr_id"`
	AccountID   string    `grove:"account_id" bson:"account_id"`
	Debit       string    `grove:"debit" bson:"debit"`
	Credit      string    `grove:"credit" bson:"credit"`
	LineHash    string    `grove:"line_hash" bson:"line_hash"`
	Position    int       `grove:"position" bson:"position"`
	CreatedAt   time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at" bson:"updated_at"`
}

func toTraceModel(t *trace.Trace) *traceModel {
	return &traceModel{
		ID:          t.ID.String(),
		StmtID:      t.StmtID.String(),
		LineID:      t.LineID.String(),
		LinePstTime: toMicros(t.LinePstTime),
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

func fromTraceModel(m *traceModel) (*trace.Trace, error) {
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
		LinePstTime: fromMicros(m.LinePstTime),
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

// toMicros stores instants as Unix microseconds. BSON datetimes keep
// milliseconds only, which would break hash verification and chain order.
func toMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func fromMicros(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}
