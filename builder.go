package goSessions

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goSessions/jwt"
	"github.com/MrEthical07/goSessions/password"
	"github.com/MrEthical07/goSessions/session"
)

// Builder defines a public type used by goSessions APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userProvider UserProvider
	auditSink    AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's config with a deep copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the session and token stores.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSecrets sets the HS256 keys for the access and session token classes.
func (b *Builder) WithSecrets(accessSecret, sessionSecret []byte) *Builder {
	b.config.JWT.AccessSecret = cloneBytes(accessSecret)
	b.config.JWT.SessionSecret = cloneBytes(sessionSecret)
	return b
}

// WithUserProvider sets the [UserProvider] backing credential lookups.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithAuditSink sets the [AuditSink] receiving audit events. Audit delivery
// still requires [AuditConfig.Enabled].
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process metrics counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the validation latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and assembles the [Engine]. A Builder
// is single use; a second Build call fails.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}

	engine := &Engine{
		config:       cfg,
		sessionStore: session.NewStore(b.redis, cfg.Session.RedisPrefix),
		tokenStore:   session.NewTokenStore(b.redis, cfg.Session.RedisPrefix, cfg.TokenStore.ArchiveTTL),
		userProvider: b.userProvider,
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	ph, err := password.NewArgon2(password.Config{
		Memory:         cfg.Password.Memory,
		Time:           cfg.Password.Time,
		Parallelism:    cfg.Password.Parallelism,
		SaltLength:     cfg.Password.SaltLength,
		KeyLength:      cfg.Password.KeyLength,
		MaxConcurrency: cfg.Password.MaxConcurrency,
	})
	if err != nil {
		return nil, err
	}
	engine.passwordHash = ph

	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		SessionTTL:    cfg.JWT.SessionTTL,
		AccessSecret:  cloneBytes(cfg.JWT.AccessSecret),
		SessionSecret: cloneBytes(cfg.JWT.SessionSecret),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		RequireIAT:    cfg.JWT.RequireIAT,
	})
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm

	b.built = true

	return engine, nil
}
