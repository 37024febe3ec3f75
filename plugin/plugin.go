// Package plugin provides the hook system for the postings engine.
// Plugins opt into lifecycle events by implementing the hook interfaces.
package plugin

import (
	"context"

	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/stmt"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. engine is the *postings.Engine.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Posting hooks
// ──────────────────────────────────────────────────

// OnPostingRecorded is called after a sealed posting has been persisted,
// including the balance-statement postings created by statement closes.
type OnPostingRecorded interface {
	Plugin
	OnPostingRecorded(ctx context.Context, p *posting.Posting) error
}

// ──────────────────────────────────────────────────
// Statement hooks
// ──────────────────────────────────────────────────

// OnStatementCreated is called after a Simulated statement and its traces
// have been persisted.
type OnStatementCreated interface {
	Plugin
	OnStatementCreated(ctx context.Context, v *stmt.View) error
}

// OnStatementClosed is called after a statement has been sealed by p.
type OnStatementClosed interface {
	Plugin
	OnStatementClosed(ctx context.Context, s *stmt.Statement, p *posting.Posting) error
}

// ──────────────────────────────────────────────────
// Failure hooks
// ──────────────────────────────────────────────────

// OnOperationFailed is called when an engine operation returns an error.
// op names the operation ("post", "create_stmt", "close_stmt", ...).
type OnOperationFailed interface {
	Plugin
	OnOperationFailed(ctx context.Context, op string, err error) error
}
