package postings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/xraph/postings/hashchain"
	"github.com/xraph/postings/id"
	"github.com/xraph/postings/plugin"
	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/store"
	"github.com/xraph/postings/types"
)

// DefaultRecordUser stamps postings recorded without an explicit user.
const DefaultRecordUser = "postings"

// Engine is the posting and statement engine. It is safe for concurrent use.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	locker  Locker
	chain   *hashchain.Builder
	clock   func() time.Time

	recordUser  string
	autoMigrate bool
}

// New creates a new Engine backed by s.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:       s,
		plugins:     plugin.NewRegistry(),
		logger:      slog.Default(),
		locker:      NewMemoryLocker(),
		clock:       time.Now,
		recordUser:  DefaultRecordUser,
		autoMigrate: true,
	}
	e.chain = hashchain.New(hashchain.AntecedentsFunc(e.latestPosting))

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // duplicate names are logged by the registry
	}
}

// WithHookTimeout bounds each plugin hook call.
func WithHookTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.plugins.WithTimeout(d)
	}
}

// WithLocker replaces the in-process locker, e.g. with a distributed one
// when several processes share a store.
func WithLocker(l Locker) Option {
	return func(e *Engine) {
		if l != nil {
			e.locker = l
		}
	}
}

// WithClock sets the time source used for record, value and entity times.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithRecordUser sets the user stamped on postings the engine creates and
// on postings recorded without a user.
func WithRecordUser(user string) Option {
	return func(e *Engine) {
		if user != "" {
			e.recordUser = user
		}
	}
}

// WithAutoMigrate controls whether Start migrates the store (default true).
func WithAutoMigrate(enabled bool) Option {
	return func(e *Engine) {
		e.autoMigrate = enabled
	}
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if e.autoMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return storageError("migrate", err)
		}
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("postings engine started",
		"plugins", e.plugins.Count(),
	)

	return nil
}

// Stop shuts plugins down and closes the store.
func (e *Engine) Stop() error {
	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	if err := e.store.Close(); err != nil {
		return storageError("close", err)
	}
	e.logger.Info("postings engine stopped")
	return nil
}

// Health pings the store.
func (e *Engine) Health(ctx context.Context) error {
	return storageError("ping", e.store.Ping(ctx))
}

// Store returns the underlying store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// ──────────────────────────────────────────────────
// Internals
// ──────────────────────────────────────────────────

func (e *Engine) now() time.Time {
	return types.Timestamp(e.clock())
}

// latestPosting feeds the hash chain; an empty ledger has no antecedent.
func (e *Engine) latestPosting(ctx context.Context, ledgerID id.LedgerID) (*posting.Posting, error) {
	p, err := e.store.GetLatestPosting(ctx, ledgerID)
	if errors.Is(err, ErrPostingNotFound) {
		return nil, nil //nolint:nilnil // genesis posting
	}
	if err != nil {
		return nil, storageError("find antecedent", err)
	}
	return p, nil
}

// seal links and hashes p. Missing information surfaces as
// ErrHashComputationFailed; lookup failures keep their storage class.
func (e *Engine) seal(ctx context.Context, p *posting.Posting) error {
	err := e.chain.Seal(ctx, p)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, hashchain.ErrIncomplete):
		return errors.Join(ErrHashComputationFailed, err)
	default:
		return err
	}
}

func (e *Engine) lock(ctx context.Context, key string) (func(), error) {
	unlock, err := e.locker.Lock(ctx, key)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errors.Join(ErrLockTimeout, err)
	}
	return unlock, nil
}

// fail reports a failed operation to plugins and returns err unchanged.
func (e *Engine) fail(ctx context.Context, op string, err error) error {
	e.logger.Debug("operation failed", "op", op, "error", err)
	e.plugins.EmitOperationFailed(ctx, op, err)
	return err
}
