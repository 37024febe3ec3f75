package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the postings store (SQLite).
var Migrations = migrate.NewGroup("postings")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_postings_charts",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS postings_charts (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS postings_charts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_postings_ledgers",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS postings_ledgers (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL DEFAULT '',
    coa_id      TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS postings_ledgers`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_postings_accounts",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS postings_accounts (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL DEFAULT '',
    ledger_id    TEXT NOT NULL DEFAULT '',
    parent_id    TEXT NOT NULL DEFAULT '',
    coa_id       TEXT NOT NULL DEFAULT '',
    balance_side TEXT NOT NULL,
    category     TEXT NOT NULL,
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_postings_accounts_ledger ON postings_accounts (ledger_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS postings_accounts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_postings_postings",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS postings_postings (
    id              TEXT PRIMARY KEY,
    ledger_id       TEXT NOT NULL,
    record_user     TEXT NOT NULL DEFAULT '',
    record_time     TEXT NOT NULL,
    opr_id          TEXT NOT NULL DEFAULT '',
    opr_time        TEXT NOT NULL,
    opr_type        TEXT NOT NULL DEFAULT '',
    opr_details     TEXT NOT NULL DEFAULT '',
    opr_src         TEXT NOT NULL DEFAULT '',
    pst_time        TEXT NOT NULL,
    status          TEXT NOT NULL,
    type            TEXT NOT NULL,
    val_time        TEXT NOT NULL,
    discarded_id    TEXT NOT NULL DEFAULT '',
    discarded_time  TEXT,
    discarding_id   TEXT NOT NULL DEFAULT '',
    hash            TEXT NOT NULL,
    antecedent_id   TEXT NOT NULL DEFAULT '',
    antecedent_hash TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_postings_postings_chain ON postings_postings (ledger_id, record_time, id);

CREATE TABLE IF NOT EXISTS postings_lines (
    id         TEXT PRIMARY KEY,
    posting_id TEXT NOT NULL,
    line_nbr   INTEGER NOT NULL,
    account_id TEXT NOT NULL,
    debit      TEXT NOT NULL DEFAULT '0',
    credit     TEXT NOT NULL DEFAULT '0',
    pst_time   TEXT NOT NULL,
    opr_id     TEXT NOT NULL DEFAULT '',
    hash       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_postings_lines_posting ON postings_lines (posting_id, line_nbr);
CREATE INDEX IF NOT EXISTS idx_postings_lines_account_time ON postings_lines (account_id, pst_time, id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS postings_lines;
DROP TABLE IF EXISTS postings_postings;
`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_postings_statements",
			Version: "20240101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS postings_statements (
    id              TEXT PRIMARY KEY,
    account_id      TEXT NOT NULL,
    pst_time        TEXT NOT NULL,
    status          TEXT NOT NULL DEFAULT 'SIMULATED',
    total_debit     TEXT NOT NULL DEFAULT '0',
    total_credit    TEXT NOT NULL DEFAULT '0',
    posting_id      TEXT NOT NULL DEFAULT '',
    first_trace_id  TEXT NOT NULL DEFAULT '',
    latest_trace_id TEXT NOT NULL DEFAULT '',
    stmt_seq_nbr    INTEGER NOT NULL,
    baseline_id     TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_postings_statements_seq ON postings_statements (account_id, stmt_seq_nbr);
CREATE INDEX IF NOT EXISTS idx_postings_statements_closed ON postings_statements (account_id, status, pst_time);

CREATE TABLE IF NOT EXISTS postings_traces (
    id            TEXT PRIMARY KEY,
    stmt_id       TEXT NOT NULL,
    line_id       TEXT NOT NULL,
    line_pst_time TEXT NOT NULL,
    opr_id        TEXT NOT NULL DEFAULT '',
    account_id    TEXT NOT NULL,
    debit         TEXT NOT NULL DEFAULT '0',
    credit        TEXT NOT NULL DEFAULT '0',
    line_hash     TEXT NOT NULL DEFAULT '',
    position      INTEGER NOT NULL,
    created_at    TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at    TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_postings_traces_stmt ON postings_traces (stmt_id, position);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS postings_traces;
DROP TABLE IF EXISTS postings_statements;
`)
				return err
			},
		},
	)
}
