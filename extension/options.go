package extension

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	postings "github.com/xraph/postings"
	"github.com/xraph/postings/plugin"
	"github.com/xraph/postings/store"
)

// Option configures the postings Forge extension.
type Option func(*Extension)

// WithStore sets the store for the postings engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a postings.Option through to the underlying engine.
func WithEngineOption(opt postings.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a postings plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, postings.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRecordUser sets the default record user.
func WithRecordUser(user string) Option {
	return func(e *Extension) { e.config.RecordUser = user }
}

// WithHookTimeout bounds each plugin hook call.
func WithHookTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.HookTimeout = d }
}

// WithRedisLock switches locking to Redis at addr.
func WithRedisLock(addr string) Option {
	return func(e *Extension) { e.config.RedisAddr = addr }
}

// WithKafka enables the Kafka event publisher.
func WithKafka(brokers ...string) Option {
	return func(e *Extension) { e.config.KafkaBrokers = brokers }
}

// WithMetrics enables the metrics plugin. A nil registerer means the
// Prometheus default registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(e *Extension) {
		e.config.EnableMetrics = true
		e.registerer = reg
	}
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
