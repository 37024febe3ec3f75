package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	postings "github.com/xraph/postings"
	"github.com/xraph/postings/account"
	"github.com/xraph/postings/coa"
	"github.com/xraph/postings/id"
	"github.com/xraph/postings/ledger"
	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/stmt"
	"github.com/xraph/postings/store"
	"github.com/xraph/postings/store/codec"
	"github.com/xraph/postings/trace"
)

// Collection name constants.
const (
	colCharts     = "postings_charts"
	colLedgers    = "postings_ledgers"
	colAccounts   = "postings_accounts"
	colPostings   = "postings_postings"
	colLines      = "postings_lines"
	colStatements = "postings_statements"
	colTraces     = "postings_traces"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all postings collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("postings/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Chart of account store ====================

func (s *Store) CreateChartOfAccount(ctx context.Context, c *coa.ChartOfAccount) error {
	_, err := s.mdb.NewInsert(toChartModel(c)).Exec(ctx)
	if err != nil {
		return insertErr("create chart of account", err)
	}
	return nil
}

func (s *Store) GetChartOfAccount(ctx context.Context, coaID id.ChartOfAccountID) (*coa.ChartOfAccount, error) {
	var m chartModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": coaID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, postings.ErrChartOfAccountNotFound
		}
		return nil, fmt.Errorf("postings/mongo: get chart of account: %w", err)
	}
	return fromChartModel(&m)
}

// ==================== Ledger store ====================

func (s *Store) CreateLedger(ctx context.Context, l *ledger.Ledger) error {
	_, err := s.mdb.NewInsert(toLedgerModel(l)).Exec(ctx)
	if err != nil {
		return insertErr("create ledger", err)
	}
	return nil
}

func (s *Store) GetLedger(ctx context.Context, ledgerID id.LedgerID) (*ledger.Ledger, error) {
	var m ledgerModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": ledgerID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, postings.ErrLedgerNotFound
		}
		return nil, fmt.Errorf("postings/mongo: get ledger: %w", err)
	}
	return fromLedgerModel(&m)
}

// ==================== Account store ====================

func (s *Store) CreateAccount(ctx context.Context, a *account.Account) error {
	m, err := toAccountModel(a)
	if err != nil {
		return err
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return insertErr("create account", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	var m accountModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": accountID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, postings.ErrLedgerAccountNotFound
		}
		return nil, fmt.Errorf("postings/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) ListAccounts(ctx context.Context, ledgerID id.LedgerID) ([]*account.Account, error) {
	var models []accountModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"ledger_id": ledgerID.String()}).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("postings/mongo: list accounts: %w", err)
	}

	result := make([]*account.Account, len(models))
	for i := range models {
		a, err := fromAccountModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

// ==================== Posting store ====================

// CreatePosting inserts the posting document and then one document per
// line into the lines collection.
func (s *Store) CreatePosting(ctx context.Context, p *posting.Posting) error {
	m, lines, err := toPostingModel(p)
	if err != nil {
		return err
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return insertErr("create posting", err)
	}
	for i := range lines {
		if _, err := s.mdb.NewInsert(&lines[i]).Exec(ctx); err != nil {
			return insertErr("create posting line", err)
		}
	}
	return nil
}

func (s *Store) GetPosting(ctx context.Context, postingID id.PostingID) (*posting.Posting, error) {
	var m postingModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": postingID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, postings.ErrPostingNotFound
		}
		return nil, fmt.Errorf("postings/mongo: get posting: %w", err)
	}
	return s.loadPosting(ctx, &m)
}

func (s *Store) GetLatestPosting(ctx context.Context, ledgerID id.LedgerID) (*posting.Posting, error) {
	var m postingModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"ledger_id": ledgerID.String()}).
		Sort(bson.D{{Key: "record_time", Value: -1}, {Key: "_id", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, postings.ErrPostingNotFound
		}
		return nil, fmt.Errorf("postings/mongo: get latest posting: %w", err)
	}
	return s.loadPosting(ctx, &m)
}

func (s *Store) ListPostings(ctx context.Context, ledgerID id.LedgerID, opts posting.ListOpts) ([]*posting.Posting, error) {
	var models []postingModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{"ledger_id": ledgerID.String()}).
		Sort(bson.D{{Key: "record_time", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("postings/mongo: list postings: %w", err)
	}

	result := make([]*posting.Posting, len(models))
	for i := range models {
		p, err := s.loadPosting(ctx, &models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) ListLinesUpTo(ctx context.Context, accountID id.AccountID, to time.Time) ([]*posting.Line, error) {
	return s.findLines(ctx, bson.M{
		"account_id": accountID.String(),
		"pst_time":   bson.M{"$lte": toMicros(to)},
	})
}

func (s *Store) ListLinesInWindow(ctx context.Context, accountID id.AccountID, from, to time.Time) ([]*posting.Line, error) {
	return s.findLines(ctx, bson.M{
		"account_id": accountID.String(),
		"pst_time":   bson.M{"$gt": toMicros(from), "$lte": toMicros(to)},
	})
}

func (s *Store) findLines(ctx context.Context, filter bson.M) ([]*posting.Line, error) {
	var models []lineModel
	err := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "pst_time", Value: 1}, {Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("postings/mongo: list lines: %w", err)
	}

	result := make([]*posting.Line, len(models))
	for i := range models {
		l, err := fromLineModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = l
	}
	return result, nil
}

func (s *Store) loadPosting(ctx context.Context, m *postingModel) (*posting.Posting, error) {
	var lines []lineModel
	err := s.mdb.NewFind(&lines).
		Filter(bson.M{"posting_id": m.ID}).
		Sort(bson.D{{Key: "line_nbr", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("postings/mongo: load posting lines: %w", err)
	}
	return fromPostingModel(m, lines)
}

// ==================== Statement store ====================

func (s *Store) CreateStmt(ctx context.Context, st *stmt.Statement) error {
	m, err := toStmtModel(st)
	if err != nil {
		return err
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return insertErr("create statement", err)
	}
	return nil
}

func (s *Store) GetStmt(ctx context.Context, stmtID id.StatementID) (*stmt.Statement, error) {
	var m stmtModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": stmtID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, postings.ErrStatementNotFound
		}
		return nil, fmt.Errorf("postings/mongo: get statement: %w", err)
	}
	return fromStmtModel(&m)
}

func (s *Store) GetLatestClosedStmt(ctx context.Context, accountID id.AccountID, before time.Time) (*stmt.Statement, error) {
	closed, err := codec.StmtStatus.Encode(stmt.StatusClosed)
	if err != nil {
		return nil, err
	}

	var m stmtModel
	err = s.mdb.NewFind(&m).
		Filter(bson.M{
			"account_id": accountID.String(),
			"status":     closed,
			"pst_time":   bson.M{"$lt": toMicros(before)},
		}).
		Sort(bson.D{{Key: "pst_time", Value: -1}, {Key: "stmt_seq_nbr", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, postings.ErrStatementNotFound
		}
		return nil, fmt.Errorf("postings/mongo: get latest closed statement: %w", err)
	}
	return fromStmtModel(&m)
}

func (s *Store) MaxStmtSeqNbr(ctx context.Context, accountID id.AccountID) (int64, error) {
	var m stmtModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"account_id": accountID.String()}).
		Sort(bson.D{{Key: "stmt_seq_nbr", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("postings/mongo: max statement seq: %w", err)
	}
	return m.SeqNbr, nil
}

// CloseStmt matches on both id and Simulated status so that only one
// concurrent caller can flip the statement.
func (s *Store) CloseStmt(ctx context.Context, stmtID id.StatementID, postingID id.PostingID, closedAt time.Time) error {
	closed, err := codec.StmtStatus.Encode(stmt.StatusClosed)
	if err != nil {
		return err
	}
	simulated, err := codec.StmtStatus.Encode(stmt.StatusSimulated)
	if err != nil {
		return err
	}

	res, err := s.mdb.NewUpdate((*stmtModel)(nil)).
		Filter(bson.M{"_id": stmtID.String(), "status": simulated}).
		Set("status", closed).
		Set("posting_id", postingID.String()).
		Set("updated_at", closedAt.UTC()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("postings/mongo: close statement: %w", err)
	}
	if res.MatchedCount() == 0 {
		if _, err := s.GetStmt(ctx, stmtID); err != nil {
			return err
		}
		return postings.ErrStatementAlreadyClosed
	}
	return nil
}

func (s *Store) ListStmts(ctx context.Context, accountID id.AccountID, opts stmt.ListOpts) ([]*stmt.Statement, error) {
	var models []stmtModel

	filter := bson.M{"account_id": accountID.String()}
	if opts.Status != 0 {
		status, err := codec.StmtStatus.Encode(opts.Status)
		if err != nil {
			return nil, err
		}
		filter["status"] = status
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "stmt_seq_nbr", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("postings/mongo: list statements: %w", err)
	}

	result := make([]*stmt.Statement, len(models))
	for i := range models {
		st, err := fromStmtModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = st
	}
	return result, nil
}

// ==================== Trace store ====================

func (s *Store) CreateTrace(ctx context.Context, t *trace.Trace) error {
	if _, err := s.mdb.NewInsert(toTraceModel(t)).Exec(ctx); err != nil {
		return insertErr("create trace", err)
	}
	return nil
}

func (s *Store) GetTrace(ctx context.Context, traceID id.TraceID) (*trace.Trace, error) {
	var m traceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": traceID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, postings.ErrTraceNotFound
		}
		return nil, fmt.Errorf("postings/mongo: get trace: %w", err)
	}
	return fromTraceModel(&m)
}

func (s *Store) ListTraces(ctx context.Context, stmtID id.StatementID) ([]*trace.Trace, error) {
	var models []traceModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"stmt_id": stmtID.String()}).
		Sort(bson.D{{Key: "position", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("postings/mongo: list traces: %w", err)
	}

	result := make([]*trace.Trace, len(models))
	for i := range models {
		t, err := fromTraceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}

// ==================== Helpers ====================

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func insertErr(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: postings/mongo: %s: %w", postings.ErrAlreadyExists, op, err)
	}
	return fmt.Errorf("postings/mongo: %s: %w", op, err)
}

// migrationIndexes returns the index definitions for all postings collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colCharts:  nil,
		colLedgers: nil,
		colAccounts: {
			{Keys: bson.D{{Key: "ledger_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colPostings: {
			{Keys: bson.D{{Key: "ledger_id", Value: 1}, {Key: "record_time", Value: -1}, {Key: "_id", Value: -1}}},
		},
		colLines: {
			{Keys: bson.D{{Key: "posting_id", Value: 1}, {Key: "line_nbr", Value: 1}}},
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "pst_time", Value: 1}, {Key: "_id", Value: 1}}},
		},
		colStatements: {
			{
				Keys:    bson.D{{Key: "account_id", Value: 1}, {Key: "stmt_seq_nbr", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "status", Value: 1}, {Key: "pst_time", Value: -1}}},
		},
		colTraces: {
			{Keys: bson.D{{Key: "stmt_id", Value: 1}, {Key: "position", Value: 1}}},
		},
	}
}
