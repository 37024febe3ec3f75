package extension

import "time"

// Config holds the postings extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.postings" or "postings" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// RecordUser stamps postings recorded without a user and the closing
	// postings the engine creates (default: "postings").
	RecordUser string `json:"record_user" mapstructure:"record_user" yaml:"record_user"`

	// HookTimeout bounds each plugin hook call (default: 5s).
	HookTimeout time.Duration `json:"hook_timeout" mapstructure:"hook_timeout" yaml:"hook_timeout"`

	// RedisAddr switches statement and ledger locking to Redis when set.
	// Required when several processes share one store.
	RedisAddr string `json:"redis_addr" mapstructure:"redis_addr" yaml:"redis_addr"`

	// LockTTL is the Redis lock expiry (default: 30s).
	LockTTL time.Duration `json:"lock_ttl" mapstructure:"lock_ttl" yaml:"lock_ttl"`

	// LockMaxWait bounds how long an operation waits for a lock. Zero
	// waits until the request context is done.
	LockMaxWait time.Duration `json:"lock_max_wait" mapstructure:"lock_max_wait" yaml:"lock_max_wait"`

	// KafkaBrokers enables the Kafka event publisher when non-empty.
	KafkaBrokers []string `json:"kafka_brokers" mapstructure:"kafka_brokers" yaml:"kafka_brokers"`

	// KafkaPostingsTopic receives posting.recorded events.
	KafkaPostingsTopic string `json:"kafka_postings_topic" mapstructure:"kafka_postings_topic" yaml:"kafka_postings_topic"`

	// KafkaStatementsTopic receives statement.created/closed events.
	KafkaStatementsTopic string `json:"kafka_statements_topic" mapstructure:"kafka_statements_topic" yaml:"kafka_statements_topic"`

	// EnableMetrics registers the Prometheus metrics plugin on the
	// default registerer.
	EnableMetrics bool `json:"enable_metrics" mapstructure:"enable_metrics" yaml:"enable_metrics"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RecordUser:           "postings",
		HookTimeout:          5 * time.Second,
		LockTTL:              30 * time.Second,
		KafkaPostingsTopic:   "postings.postings",
		KafkaStatementsTopic: "postings.statements",
	}
}
