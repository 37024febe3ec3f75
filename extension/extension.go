// Package extension provides the Forge extension adapter for the postings
// engine.
//
// It implements the forge.Extension interface to integrate postings into a
// Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.postings" or "postings" keys.
package extension

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	postings "github.com/xraph/postings"
	"github.com/xraph/postings/events/kafka"
	"github.com/xraph/postings/lock/redislock"
	"github.com/xraph/postings/observability"
	"github.com/xraph/postings/store"
	"github.com/xraph/postings/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "postings"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Hash-chained double-entry posting and statement engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the postings engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *postings.Engine
	store      store.Store
	engineOpts []postings.Option
	registerer prometheus.Registerer
	redis      *redis.Client
}

// New creates a new postings Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying postings engine.
// This is nil until Register is called.
func (e *Extension) Engine() *postings.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	e.engine = postings.New(e.store, e.buildEngineOpts()...)

	return vessel.Provide(fapp.Container(), func() (*postings.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("postings: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	var errs []error
	if e.engine != nil {
		errs = append(errs, e.engine.Stop())
	}
	if e.redis != nil {
		errs = append(errs, e.redis.Close())
	}
	e.MarkStopped()
	return errors.Join(errs...)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("postings: store not initialized")
	}
	if err := e.engine.Health(ctx); err != nil {
		return err
	}
	if e.redis != nil {
		return e.redis.Ping(ctx).Err()
	}
	return nil
}

// buildEngineOpts constructs postings.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []postings.Option {
	opts := make([]postings.Option, 0, len(e.engineOpts)+6)

	opts = append(opts,
		postings.WithAutoMigrate(!e.config.DisableMigrate),
		postings.WithRecordUser(e.config.RecordUser),
		postings.WithHookTimeout(e.config.HookTimeout),
	)

	if e.config.RedisAddr != "" {
		e.redis = redis.NewClient(&redis.Options{Addr: e.config.RedisAddr})
		opts = append(opts, postings.WithLocker(redislock.New(e.redis,
			redislock.WithTTL(e.config.LockTTL),
			redislock.WithMaxWait(e.config.LockMaxWait),
		)))
	}

	if len(e.config.KafkaBrokers) > 0 {
		opts = append(opts, postings.WithPlugin(kafka.NewPublisher(e.config.KafkaBrokers,
			kafka.WithTopics(kafka.Topics{
				Postings:   e.config.KafkaPostingsTopic,
				Statements: e.config.KafkaStatementsTopic,
			}),
		)))
	}

	if e.config.EnableMetrics {
		factory := observability.NewPrometheusFactory(e.registerer)
		opts = append(opts, postings.WithPlugin(observability.NewMetricsExtension(factory)))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("postings: configuration is required but not found in config files; " +
				"ensure 'extensions.postings' or 'postings' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("postings: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("record_user", e.config.RecordUser),
		forge.F("hook_timeout", e.config.HookTimeout),
		forge.F("redis_lock", e.config.RedisAddr != ""),
		forge.F("kafka_brokers", len(e.config.KafkaBrokers)),
		forge.F("metrics", e.config.EnableMetrics),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.postings" first (namespaced pattern).
	if cm.IsSet("extensions.postings") {
		if err := cm.Bind("extensions.postings", &cfg); err == nil {
			e.Logger().Debug("postings: loaded config from file",
				forge.F("key", "extensions.postings"),
			)
			return cfg, true
		}
		e.Logger().Warn("postings: failed to bind extensions.postings config",
			forge.F("error", "bind failed"),
		)
	}

	// Try top-level "postings" key.
	if cm.IsSet("postings") {
		if err := cm.Bind("postings", &cfg); err == nil {
			e.Logger().Debug("postings: loaded config from file",
				forge.F("key", "postings"),
			)
			return cfg, true
		}
		e.Logger().Warn("postings: failed to bind postings config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.RecordUser == "" {
		cfg.RecordUser = defaults.RecordUser
	}
	if cfg.HookTimeout == 0 {
		cfg.HookTimeout = defaults.HookTimeout
	}
	if cfg.LockTTL == 0 {
		cfg.LockTTL = defaults.LockTTL
	}
	if cfg.KafkaPostingsTopic == "" {
		cfg.KafkaPostingsTopic = defaults.KafkaPostingsTopic
	}
	if cfg.KafkaStatementsTopic == "" {
		cfg.KafkaStatementsTopic = defaults.KafkaStatementsTopic
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.EnableMetrics {
		yamlConfig.EnableMetrics = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.RecordUser == "" {
		yamlConfig.RecordUser = programmaticConfig.RecordUser
	}
	if yamlConfig.RedisAddr == "" {
		yamlConfig.RedisAddr = programmaticConfig.RedisAddr
	}
	if len(yamlConfig.KafkaBrokers) == 0 {
		yamlConfig.KafkaBrokers = programmaticConfig.KafkaBrokers
	}
	if yamlConfig.KafkaPostingsTopic == "" {
		yamlConfig.KafkaPostingsTopic = programmaticConfig.KafkaPostingsTopic
	}
	if yamlConfig.KafkaStatementsTopic == "" {
		yamlConfig.KafkaStatementsTopic = programmaticConfig.KafkaStatementsTopic
	}

	// Duration fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.HookTimeout == 0 {
		yamlConfig.HookTimeout = programmaticConfig.HookTimeout
	}
	if yamlConfig.LockTTL == 0 {
		yamlConfig.LockTTL = programmaticConfig.LockTTL
	}
	if yamlConfig.LockMaxWait == 0 {
		yamlConfig.LockMaxWait = programmaticConfig.LockMaxWait
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
