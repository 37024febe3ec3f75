package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/stmt"
)

// DefaultHookTimeout bounds every hook call.
const DefaultHookTimeout = 5 * time.Second

// Registry manages registered plugins and dispatches hooks to them.
// Hook implementations are discovered once at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit             []OnInit
	onShutdown         []OnShutdown
	onPostingRecorded  []OnPostingRecorded
	onStatementCreated []OnStatementCreated
	onStatementClosed  []OnStatementClosed
	onOperationFailed  []OnOperationFailed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultHookTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its hooks.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnPostingRecorded); ok {
		r.onPostingRecorded = append(r.onPostingRecorded, v)
	}
	if v, ok := p.(OnStatementCreated); ok {
		r.onStatementCreated = append(r.onStatementCreated, v)
	}
	if v, ok := p.(OnStatementClosed); ok {
		r.onStatementClosed = append(r.onStatementClosed, v)
	}
	if v, ok := p.(OnOperationFailed); ok {
		r.onOperationFailed = append(r.onOperationFailed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"hooks", implementedHooks(p),
	)

	return nil
}

var hookTypes = []struct {
	typ  reflect.Type
	name string
}{
	{reflect.TypeFor[OnInit](), "OnInit"},
	{reflect.TypeFor[OnShutdown](), "OnShutdown"},
	{reflect.TypeFor[OnPostingRecorded](), "OnPostingRecorded"},
	{reflect.TypeFor[OnStatementCreated](), "OnStatementCreated"},
	{reflect.TypeFor[OnStatementClosed](), "OnStatementClosed"},
	{reflect.TypeFor[OnOperationFailed](), "OnOperationFailed"},
}

func implementedHooks(p Plugin) []string {
	var hooks []string
	t := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if t.Implements(h.typ) {
			hooks = append(hooks, h.name)
		}
	}
	return hooks
}

// Get returns a plugin by name, or nil.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins in registration order.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInit", p.Name(), func() error {
			return p.OnInit(ctx, engine)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnShutdown", p.Name(), func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitPostingRecorded emits a posting recorded event.
func (r *Registry) EmitPostingRecorded(ctx context.Context, pst *posting.Posting) {
	r.mu.RLock()
	plugins := r.onPostingRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnPostingRecorded", p.Name(), func() error {
			return p.OnPostingRecorded(ctx, pst)
		})
	}
}

// EmitStatementCreated emits a statement created event.
func (r *Registry) EmitStatementCreated(ctx context.Context, v *stmt.View) {
	r.mu.RLock()
	plugins := r.onStatementCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnStatementCreated", p.Name(), func() error {
			return p.OnStatementCreated(ctx, v)
		})
	}
}

// EmitStatementClosed emits a statement closed event.
func (r *Registry) EmitStatementClosed(ctx context.Context, s *stmt.Statement, pst *posting.Posting) {
	r.mu.RLock()
	plugins := r.onStatementClosed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnStatementClosed", p.Name(), func() error {
			return p.OnStatementClosed(ctx, s, pst)
		})
	}
}

// EmitOperationFailed emits an operation failed event.
func (r *Registry) EmitOperationFailed(ctx context.Context, op string, opErr error) {
	r.mu.RLock()
	plugins := r.onOperationFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnOperationFailed", p.Name(), func() error {
			return p.OnOperationFailed(ctx, op, opErr)
		})
	}
}

func (r *Registry) dispatch(ctx context.Context, hook, name string, fn func() error) {
	if err := r.callWithTimeout(ctx, name, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", name,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins must never block the posting pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
