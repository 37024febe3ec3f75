package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	postings "github.com/xraph/postings"
	"github.com/xraph/postings/account"
	"github.com/xraph/postings/coa"
	"github.com/xraph/postings/id"
	"github.com/xraph/postings/ledger"
	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/stmt"
	"github.com/xraph/postings/store"
	"github.com/xraph/postings/store/codec"
	"github.com/xraph/postings/store/internal/sqlmodel"
	"github.com/xraph/postings/trace"
	"github.com/xraph/postings/types"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("postings/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("postings/postgres: migration failed: %w", err)
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
	_, err := s.pg.NewInsert(sqlmodel.ToChartModel(c)).Exec(ctx)
	return mapInsertErr(err)
}

func (s *Store) GetChartOfAccount(ctx context.Context, coaID id.ChartOfAccountID) (*coa.ChartOfAccount, error) {
	m := new(sqlmodel.ChartModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", coaID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, postings.ErrChartOfAccountNotFound
		}
		return nil, err
	}
	return sqlmodel.FromChartModel(m)
}

// ==================== Ledger store ====================

func (s *Store) CreateLedger(ctx context.Context, l *ledger.Ledger) error {
	_, err := s.pg.NewInsert(sqlmodel.ToLedgerModel(l)).Exec(ctx)
	return mapInsertErr(err)
}

func (s *Store) GetLedger(ctx context.Context, ledgerID id.LedgerID) (*ledger.Ledger, error) {
	m := new(sqlmodel.LedgerModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", ledgerID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, postings.ErrLedgerNotFound
		}
		return nil, err
	}
	return sqlmodel.FromLedgerModel(m)
}

// ==================== Account store ====================

func (s *Store) CreateAccount(ctx context.Context, a *account.Account) error {
	m, err := sqlmodel.ToAccountModel(a)
	if err != nil {
		return err
	}
	_, err = s.pg.NewInsert(m).Exec(ctx)
	return mapInsertErr(err)
}

func (s *Store) GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	m := new(sqlmodel.AccountModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", accountID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, postings.ErrLedgerAccountNotFound
		}
		return nil, err
	}
	return sqlmodel.FromAccountModel(m)
}

func (s *Store) ListAccounts(ctx context.Context, ledgerID id.LedgerID) ([]*account.Account, error) {
	var models []sqlmodel.AccountModel
	err := s.pg.NewSelect(&models).
		Where("ledger_id = $1", ledgerID.String()).
		OrderExpr("created_at ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*account.Account, len(models))
	for i := range models {
		a, err := sqlmodel.FromAccountModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

// ==================== Posting store ====================

// CreatePosting inserts the posting row followed by its lines. A posting
// without lines (a statement closing posting) inserts the header only.
func (s *Store) CreatePosting(ctx context.Context, p *posting.Posting) error {
	m, lines, err := sqlmodel.ToPostingModel(p)
	if err != nil {
		return err
	}
	if _, err := s.pg.NewInsert(m).Exec(ctx); err != nil {
		return mapInsertErr(err)
	}
	if len(lines) == 0 {
		return nil
	}
	_, err = s.pg.NewInsert(&lines).Exec(ctx)
	return mapInsertErr(err)
}

func (s *Store) GetPosting(ctx context.Context, postingID id.PostingID) (*posting.Posting, error) {
	m := new(sqlmodel.PostingModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", postingID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, postings.ErrPostingNotFound
		}
		return nil, err
	}
	return s.loadPosting(ctx, m)
}

func (s *Store) GetLatestPosting(ctx context.Context, ledgerID id.LedgerID) (*posting.Posting, error) {
	m := new(sqlmodel.PostingModel)
	err := s.pg.NewSelect(m).
		Where("ledger_id = $1", ledgerID.String()).
		OrderExpr("record_time DESC, id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, postings.ErrPostingNotFound
		}
		return nil, err
	}
	return s.loadPosting(ctx, m)
}

func (s *Store) ListPostings(ctx context.Context, ledgerID id.LedgerID, opts posting.ListOpts) ([]*posting.Posting, error) {
	var models []sqlmodel.PostingModel
	q := s.pg.NewSelect(&models).Where("ledger_id = $1", ledgerID.String())
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("record_time ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	var models []sqlmodel.LineModel
	err := s.pg.NewSelect(&models).
		Where("account_id = $1", accountID.String()).
		Where("pst_time <= $2", types.Timestamp(to)).
		OrderExpr("pst_time ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return fromLineModels(models)
}

func (s *Store) ListLinesInWindow(ctx context.Context, accountID id.AccountID, from, to time.Time) ([]*posting.Line, error) {
	var models []sqlmodel.LineModel
	err := s.pg.NewSelect(&models).
		Where("account_id = $1", accountID.String()).
		Where("pst_time > $2", types.Timestamp(from)).
		Where("pst_time <= $3", types.Timestamp(to)).
		OrderExpr("pst_time ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return fromLineModels(models)
}

func (s *Store) loadPosting(ctx context.Context, m *sqlmodel.PostingModel) (*posting.Posting, error) {
	var lines []sqlmodel.LineModel
	err := s.pg.NewSelect(&lines).
		Where("posting_id = $1", m.ID).
		OrderExpr("line_nbr ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return sqlmodel.FromPostingModel(m, lines)
}

func fromLineModels(models []sqlmodel.LineModel) ([]*posting.Line, error) {
	result := make([]*posting.Line, len(models))
	for i := range models {
		l, err := sqlmodel.FromLineModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = l
	}
	return result, nil
}

// ==================== Statement store ====================

func (s *Store) CreateStmt(ctx context.Context, st *stmt.Statement) error {
	m, err := sqlmodel.ToStmtModel(st)
	if err != nil {
		return err
	}
	_, err = s.pg.NewInsert(m).Exec(ctx)
	return mapInsertErr(err)
}

func (s *Store) GetStmt(ctx context.Context, stmtID id.StatementID) (*stmt.Statement, error) {
	m := new(sqlmodel.StmtModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", stmtID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, postings.ErrStatementNotFound
		}
		return nil, err
	}
	return sqlmodel.FromStmtModel(m)
}

func (s *Store) GetLatestClosedStmt(ctx context.Context, accountID id.AccountID, before time.Time) (*stmt.Statement, error) {
	closed, err := codec.StmtStatus.Encode(stmt.StatusClosed)
	if err != nil {
		return nil, err
	}

	m := new(sqlmodel.StmtModel)
	err = s.pg.NewSelect(m).
		Where("account_id = $1", accountID.String()).
		Where("status = $2", closed).
		Where("pst_time < $3", types.Timestamp(before)).
		OrderExpr("pst_time DESC, stmt_seq_nbr DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, postings.ErrStatementNotFound
		}
		return nil, err
	}
	return sqlmodel.FromStmtModel(m)
}

func (s *Store) MaxStmtSeqNbr(ctx context.Context, accountID id.AccountID) (int64, error) {
	var seq int64
	err := s.pg.NewRaw(`
		SELECT COALESCE(MAX(stmt_seq_nbr), 0) FROM postings_statements
		WHERE account_id = $1
	`, accountID.String()).Scan(ctx, &seq)
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// CloseStmt flips a Simulated statement to Closed in a single conditional
// update. When no row matches, the statement is either missing or was
// closed by a concurrent caller.
func (s *Store) CloseStmt(ctx context.Context, stmtID id.StatementID, postingID id.PostingID, closedAt time.Time) error {
	closed, err := codec.StmtStatus.Encode(stmt.StatusClosed)
	if err != nil {
		return err
	}
	simulated, err := codec.StmtStatus.Encode(stmt.StatusSimulated)
	if err != nil {
		return err
	}

	res, err := s.pg.NewUpdate((*sqlmodel.StmtModel)(nil)).
		Set("status = $1", closed).
		Set("posting_id = $2", postingID.String()).
		Set("updated_at = $3", types.Timestamp(closedAt)).
		Where("id = $4", stmtID.String()).
		Where("status = $5", simulated).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := s.GetStmt(ctx, stmtID); err != nil {
			return err
		}
		return postings.ErrStatementAlreadyClosed
	}
	return nil
}

func (s *Store) ListStmts(ctx context.Context, accountID id.AccountID, opts stmt.ListOpts) ([]*stmt.Statement, error) {
	var models []sqlmodel.StmtModel
	q := s.pg.NewSelect(&models).Where("account_id = $1", accountID.String())

	if opts.Status != 0 {
		status, err := codec.StmtStatus.Encode(opts.Status)
		if err != nil {
			return nil, err
		}
		q = q.Where("status = $2", status)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("stmt_seq_nbr ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*stmt.Statement, len(models))
	for i := range models {
		st, err := sqlmodel.FromStmtModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = st
	}
	return result, nil
}

// ==================== Trace store ====================

func (s *Store) CreateTrace(ctx context.Context, t *trace.Trace) error {
	_, err := s.pg.NewInsert(sqlmodel.ToTraceModel(t)).Exec(ctx)
	return mapInsertErr(err)
}

func (s *Store) GetTrace(ctx context.Context, traceID id.TraceID) (*trace.Trace, error) {
	m := new(sqlmodel.TraceModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", traceID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, postings.ErrTraceNotFound
		}
		return nil, err
	}
	return sqlmodel.FromTraceModel(m)
}

func (s *Store) ListTraces(ctx context.Context, stmtID id.StatementID) ([]*trace.Trace, error) {
	var models []sqlmodel.TraceModel
	err := s.pg.NewSelect(&models).
		Where("stmt_id = $1", stmtID.String()).
		OrderExpr("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*trace.Trace, len(models))
	for i := range models {
		t, err := sqlmodel.FromTraceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// mapInsertErr reports unique violations (SQLSTATE 23505) as
// postings.ErrAlreadyExists.
func mapInsertErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key value") {
		return fmt.Errorf("%w: %w", postings.ErrAlreadyExists, err)
	}
	return err
}
