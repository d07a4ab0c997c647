package jwt

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config defines a public type used by goSessions APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	AccessTTL     time.Duration
	SessionTTL    time.Duration
	AccessSecret  []byte
	SessionSecret []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	RequireIAT    bool
	MaxFutureIAT  time.Duration
}

// Manager signs and verifies the two token classes used by the engine: the
// short-lived access token and the long-lived session token. Each class has
// its own HS256 secret, so a session token can never pass access validation
// and vice versa.
type Manager struct {
	config Config
}

// Claims defines a public type used by goSessions APIs.
//
// Claims instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a ready Manager.
//
// NewManager may return an error when input validation fails.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.SessionTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.SessionTTL <= cfg.AccessTTL {
		return nil, errors.New("session TTL must exceed access TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	if len(cfg.AccessSecret) == 0 {
		return nil, errors.New("hs256 requires access secret")
	}
	if len(cfg.SessionSecret) == 0 {
		return nil, errors.New("hs256 requires session secret")
	}
	if bytes.Equal(cfg.AccessSecret, cfg.SessionSecret) {
		return nil, errors.New("access and session secrets must differ")
	}

	return &Manager{config: cfg}, nil
}

// CreateAccess signs a new access token for the given subject and returns the
// token along with its expiry as a unix timestamp.
//
// CreateAccess may return an error when signing fails.
// CreateAccess does not mutate shared global state and can be used concurrently.
func (j *Manager) CreateAccess(uid, username string) (string, int64, error) {
	return j.create(uid, username, j.config.AccessTTL, j.config.AccessSecret)
}

// CreateSession signs a new session token for the given subject and returns
// the token along with its expiry as a unix timestamp. Session tokens are
// exchanged for fresh token pairs during refresh and are never sent to a
// resource server.
//
// CreateSession may return an error when signing fails.
// CreateSession does not mutate shared global state and can be used concurrently.
func (j *Manager) CreateSession(uid, username string) (string, int64, error) {
	return j.create(uid, username, j.config.SessionTTL, j.config.SessionSecret)
}

func (j *Manager) create(uid, username string, ttl time.Duration, secret []byte) (string, int64, error) {
	now := time.Now()
	exp := now.Add(ttl)

	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.config.Issuer,
		},
	}
	if j.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{j.config.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", 0, err
	}
	return signed, exp.Unix(), nil
}

// ParseAccess verifies an access token and returns its claims.
//
// ParseAccess may return an error when signature, expiry, or claim validation fails.
// ParseAccess does not mutate shared global state and can be used concurrently.
func (j *Manager) ParseAccess(tokenStr string) (*Claims, error) {
	return j.parse(tokenStr, j.config.AccessSecret)
}

// ParseSession verifies a session token and returns its claims.
//
// ParseSession may return an error when signature, expiry, or claim validation fails.
// ParseSession does not mutate shared global state and can be used concurrently.
func (j *Manager) ParseSession(tokenStr string) (*Claims, error) {
	return j.parse(tokenStr, j.config.SessionSecret)
}

func (j *Manager) parse(tokenStr string, secret []byte) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if j.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(j.config.Leeway))
	}
	if j.config.RequireIAT {
		options = append(options, jwt.WithIssuedAt())
	}
	if j.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(j.config.Issuer))
	}
	if j.config.Audience != "" {
		options = append(options, jwt.WithAudience(j.config.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.IssuedAt != nil && j.config.MaxFutureIAT > 0 {
		maxAllowed := time.Now().Add(j.config.MaxFutureIAT)
		if claims.IssuedAt.Time.After(maxAllowed) {
			return nil, errors.New("token iat too far in the future")
		}
	}

	return claims, nil
}
