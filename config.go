package goSessions

import (
	"errors"
	"time"
)

// Config defines a public type used by goSessions APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	JWT        JWTConfig
	Session    SessionConfig
	TokenStore TokenStoreConfig
	Password   PasswordConfig
	Account    AccountConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig defines a public type used by goSessions APIs.
//
// JWTConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JWTConfig struct {
	AccessTTL  time.Duration
	SessionTTL time.Duration

	// AccessSecret and SessionSecret are independent HS256 keys. They must
	// differ so the two token classes stay mutually unverifiable.
	AccessSecret  []byte
	SessionSecret []byte

	Issuer     string
	Audience   string
	Leeway     time.Duration
	RequireIAT bool
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by goSessions APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	RedisPrefix string

	// Lifetime bounds the server-side session blob. Zero means it tracks
	// JWTConfig.SessionTTL.
	Lifetime time.Duration
}

// TokenStoreConfig defines a public type used by goSessions APIs.
//
// TokenStoreConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenStoreConfig struct {
	// ArchiveTTL controls how long retired token records remain readable
	// after reaching a terminal state.
	ArchiveTTL time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by goSessions APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	MaxConcurrency int64
}

// AccountConfig defines a public type used by goSessions APIs.
//
// AccountConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AccountConfig struct {
	Enabled     bool
	AutoLogin   bool
	DefaultRole string
}

// AuditConfig defines a public type used by goSessions APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goSessions APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULTS
====================================
*/

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  1 * time.Hour,
			SessionTTL: 120 * 24 * time.Hour,
			Leeway:     0,
			RequireIAT: false,
		},
		Session: SessionConfig{
			RedisPrefix: "gs",
		},
		TokenStore: TokenStoreConfig{
			ArchiveTTL: 30 * 24 * time.Hour,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Account: AccountConfig{
			Enabled:     true,
			AutoLogin:   true,
			DefaultRole: "user",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = cloneBytes(cfg.JWT.AccessSecret)
	out.JWT.SessionSecret = cloneBytes(cfg.JWT.SessionSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.SessionTTL <= 0 {
		return errors.New("JWT SessionTTL must be > 0")
	}
	if c.JWT.SessionTTL <= c.JWT.AccessTTL {
		return errors.New("JWT SessionTTL must be > AccessTTL")
	}
	if len(c.JWT.AccessSecret) == 0 {
		return errors.New("JWT AccessSecret is required")
	}
	if len(c.JWT.SessionSecret) == 0 {
		return errors.New("JWT SessionSecret is required")
	}
	if c.JWT.Leeway < 0 {
		return errors.New("JWT Leeway must be >= 0")
	}

	// Session
	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	if c.Session.Lifetime < 0 {
		return errors.New("Session Lifetime must be >= 0")
	}

	// Token store
	if c.TokenStore.ArchiveTTL <= 0 {
		return errors.New("TokenStore ArchiveTTL must be > 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MaxConcurrency < 0 {
		return errors.New("Password MaxConcurrency must be >= 0")
	}

	// Account
	if c.Account.Enabled && c.Account.DefaultRole == "" {
		return errors.New("Account DefaultRole must not be empty when account creation is enabled")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

// sessionLifetime resolves the effective TTL for the server-side session blob.
func (c *Config) sessionLifetime() time.Duration {
	if c.Session.Lifetime > 0 {
		return c.Session.Lifetime
	}
	return c.JWT.SessionTTL
}
