package password

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	minPassBytes          = 10
	algorithmID           = "argon2id"
)

// Config defines a public type used by goSessions APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// MaxConcurrency caps the number of argon2 computations running at once.
	// Each computation pins Memory KB for its duration, so an unbounded burst
	// of logins can exhaust the process. Zero means GOMAXPROCS.
	MaxConcurrency int64
}

// Argon2 hashes and verifies passwords with argon2id. All key derivations pass
// through a weighted semaphore so concurrent logins cannot stack unbounded
// memory; callers waiting for a slot honor context cancellation.
type Argon2 struct {
	config Config
	gate   *semaphore.Weighted
}

// NewArgon2 describes the newargon2 operation and its observable behavior.
//
// NewArgon2 may return an error when input validation, dependency calls, or security checks fail.
// NewArgon2 does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewArgon2(cfg Config) (*Argon2, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = int64(runtime.GOMAXPROCS(0))
	}

	return &Argon2{
		config: cfg,
		gate:   semaphore.NewWeighted(cfg.MaxConcurrency),
	}, nil
}

// Hash derives an argon2id hash of password and returns it in PHC string form.
//
// Hash may return an error when input validation fails, the context is
// cancelled while waiting for a computation slot, or entropy is unavailable.
func (a *Argon2) Hash(ctx context.Context, password string) (string, error) {
	// Password processing uses raw string bytes exactly as provided (no Unicode normalization).
	if len(password) < minPassBytes {
		return "", errors.New("password must be at least 10 bytes")
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	if err := a.gate.Acquire(ctx, 1); err != nil {
		return "", err
	}
	hash := argon2.IDKey(
		[]byte(password),
		salt,
		a.config.Time,
		a.config.Memory,
		a.config.Parallelism,
		a.config.KeyLength,
	)
	a.gate.Release(1)

	saltEncoded := base64.StdEncoding.EncodeToString(salt)
	hashEncoded := base64.StdEncoding.EncodeToString(hash)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		a.config.Memory,
		a.config.Time,
		a.config.Parallelism,
		saltEncoded,
		hashEncoded,
	), nil
}

// Verify recomputes the hash of password with the parameters embedded in
// encodedHash and compares the two in constant time. A mismatch is reported
// as (false, nil); errors are reserved for malformed hashes and cancelled
// contexts.
func (a *Argon2) Verify(ctx context.Context, password string, encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	if err := a.gate.Acquire(ctx, 1); err != nil {
		return false, err
	}
	computed := argon2.IDKey(
		[]byte(password),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		parsed.keyLength,
	)
	a.gate.Release(1)

	return subtle.ConstantTimeCompare(computed, parsed.hash) == 1, nil
}

func validateConfig(cfg Config) error {
	if cfg.Memory < minMemoryKB {
		return errors.New("password memory must be >= 8192 KB")
	}
	if cfg.Time < minTimeCost {
		return errors.New("password time must be >= 1")
	}
	if cfg.Parallelism < minParallelism {
		return errors.New("password parallelism must be >= 1")
	}
	if cfg.SaltLength < minSaltLength {
		return errors.New("password salt length must be >= 16")
	}
	if cfg.KeyLength < minKeyLength {
		return errors.New("password key length must be >= 16")
	}
	if cfg.MaxConcurrency < 0 {
		return errors.New("password max concurrency must be >= 0")
	}

	return nil
}
