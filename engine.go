package goSessions

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goSessions/internal"
	"github.com/MrEthical07/goSessions/jwt"
	"github.com/MrEthical07/goSessions/password"
	"github.com/MrEthical07/goSessions/session"
)

// Engine defines a public type used by goSessions APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config       Config
	sessionStore *session.Store
	tokenStore   *session.TokenStore
	audit        *auditDispatcher
	metrics      *Metrics
	passwordHash *password.Argon2
	jwtManager   *jwt.Manager
	userProvider UserProvider
}

// Close drains the audit dispatcher. The Engine must not be used after
// Close returns.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all engine metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// ValidateUser checks email and password against the [UserProvider] and
// returns the credential-free [Identity] projection on success. Unknown
// users and wrong passwords are indistinguishable to the caller; both
// surface as [ErrInvalidCredentials].
//
// ValidateUser may return an error when input validation, dependency calls, or security checks fail.
// ValidateUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ValidateUser(ctx context.Context, email, pass string) (*Identity, error) {
	user, err := e.userProvider.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := e.passwordHash.Verify(ctx, pass, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	identity := user.identity()
	return &identity, nil
}

// Login authenticates the credentials and establishes a fresh session for
// the resulting identity: a new session ID, a server-side session blob
// holding the session token, and an Active token record.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, email, pass string) (*LoginResult, error) {
	identity, err := e.ValidateUser(ctx, email, pass)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", err, func() map[string]string {
			return map[string]string{
				"email": email,
			}
		})
		return nil, err
	}

	token, sessionID, err := e.authorize(ctx, identity)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity.UserID, "", err, nil)
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, identity.UserID, sessionID, nil, nil)

	return &LoginResult{
		Identity:  *identity,
		SessionID: sessionID,
		Token:     *token,
	}, nil
}

// Register creates an account through the [UserProvider] and, when
// AutoLogin is enabled, establishes a session for it. With AutoLogin off
// the returned result carries the identity only.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*LoginResult, error) {
	if !e.config.Account.Enabled {
		return nil, ErrAccountCreationDisabled
	}

	role := req.Role
	if role == "" {
		role = e.config.Account.DefaultRole
	}

	hash, err := e.passwordHash.Hash(ctx, req.Password)
	if err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", err, nil)
		return nil, err
	}

	user, err := e.userProvider.CreateUser(ctx, CreateUserInput{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, ErrProviderDuplicateIdentifier) {
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", "", ErrAccountExists, func() map[string]string {
				return map[string]string{
					"email": req.Email,
				}
			})
			return nil, ErrAccountExists
		}
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", err, nil)
		return nil, err
	}

	identity := user.identity()

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, user.UserID, "", nil, nil)

	if !e.config.Account.AutoLogin {
		return &LoginResult{Identity: identity}, nil
	}

	token, sessionID, err := e.authorize(ctx, &identity)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Identity:  identity,
		SessionID: sessionID,
		Token:     *token,
	}, nil
}

// Authorize establishes a session for an already authenticated identity and
// returns the access token material plus the new session ID. Login and
// Refresh call this internally; it is exported for callers that verify
// credentials out of band.
//
// Authorize may return an error when input validation, dependency calls, or security checks fail.
// Authorize does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Authorize(ctx context.Context, identity *Identity) (*AuthToken, string, error) {
	return e.authorize(ctx, identity)
}

// authorize runs the session establishment sequence for an already
// authenticated identity. The steps are strictly ordered and each write is
// awaited before the next: sign both tokens, persist the session blob, then
// upsert the token record with the digest of the session token. On failure
// nothing issued so far reaches the caller.
func (e *Engine) authorize(ctx context.Context, identity *Identity) (*AuthToken, string, error) {
	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, "", err
	}
	sessionID := sid.String()

	access, accessExp, err := e.jwtManager.CreateAccess(identity.UserID, identity.Username)
	if err != nil {
		return nil, "", err
	}

	sessionToken, sessionExp, err := e.jwtManager.CreateSession(identity.UserID, identity.Username)
	if err != nil {
		return nil, "", err
	}

	now := time.Now().Unix()
	sess := &session.Session{
		SessionID:    sessionID,
		UserID:       identity.UserID,
		Username:     identity.Username,
		RefreshToken: sessionToken,
		CreatedAt:    now,
		ExpiresAt:    sessionExp,
	}

	// The session blob must be durable before the token record points at
	// it. Both writes are awaited in order.
	if err := e.sessionStore.Save(ctx, sess, e.config.sessionLifetime()); err != nil {
		e.metricInc(MetricSessionInvalidated)
		return nil, "", ErrSessionCreationFailed
	}

	rec := &session.TokenRecord{
		RecordID:  [16]byte(uuid.New()),
		SessionID: sessionID,
		UserID:    identity.UserID,
		TokenHash: internal.HashToken(sessionToken),
		Status:    session.StatusActive,
		CreatedAt: now,
	}
	if _, err := e.tokenStore.Upsert(ctx, rec, e.config.JWT.SessionTTL); err != nil {
		if destroyErr := e.sessionStore.Destroy(ctx, sessionID); destroyErr != nil {
			log.Print("goSessions: orphan session cleanup failed")
		}
		return nil, "", ErrSessionCreationFailed
	}

	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventSessionCreated, true, identity.UserID, sessionID, nil, nil)

	return &AuthToken{AccessToken: access, ExpiresAt: accessExp}, sessionID, nil
}

// Refresh exchanges the session token held in the session blob for a fresh
// token pair under a brand-new session ID. The old token record is consumed
// atomically first; only the single winner of a concurrent refresh race
// proceeds to reissue. A digest mismatch retires the record and surfaces as
// [ErrRefreshReuse].
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Refresh(ctx context.Context, sessionID string) (*LoginResult, error) {
	sess, err := e.sessionStore.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshInvalid, false, "", sessionID, ErrSessionNotFound, func() map[string]string {
				return map[string]string{
					"reason": "session_not_found",
				}
			})
			return nil, ErrSessionNotFound
		}
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}

	if sess.RefreshToken == "" {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, sess.UserID, sessionID, ErrUnauthorized, func() map[string]string {
			return map[string]string{
				"reason": "no_session_token",
			}
		})
		return nil, ErrUnauthorized
	}

	claims, err := e.jwtManager.ParseSession(sess.RefreshToken)
	if err != nil {
		tokenErr := ErrTokenInvalid
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			tokenErr = ErrTokenExpired
		}
		e.retireSession(ctx, sessionID, InvalidateOptions{Status: session.StatusExpired})
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, sess.UserID, sessionID, tokenErr, func() map[string]string {
			return map[string]string{
				"reason": "session_token_rejected",
			}
		})
		return nil, tokenErr
	}

	err = e.tokenStore.Consume(ctx, sessionID, internal.HashToken(sess.RefreshToken))
	if err != nil {
		switch {
		case errors.Is(err, session.ErrTokenHashMismatch):
			// The stored digest belongs to a newer token. Someone replayed
			// an already rotated session token; the store has retired the
			// record, tear the session down as well.
			if destroyErr := e.sessionStore.Destroy(ctx, sessionID); destroyErr != nil {
				log.Print("goSessions: session teardown after reuse failed")
			}
			e.metricInc(MetricRefreshReuseDetected)
			e.metricInc(MetricSessionInvalidated)
			e.emitAudit(ctx, auditEventRefreshReuse, false, sess.UserID, sessionID, ErrRefreshReuse, nil)
			return nil, ErrRefreshReuse
		case errors.Is(err, session.ErrRecordNotFound):
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshInvalid, false, sess.UserID, sessionID, ErrSessionNotFound, func() map[string]string {
				return map[string]string{
					"reason": "record_not_found",
				}
			})
			return nil, ErrSessionNotFound
		case errors.Is(err, session.ErrRecordNotActive):
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshInvalid, false, sess.UserID, sessionID, ErrTokenNotActive, nil)
			return nil, ErrTokenNotActive
		default:
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshInvalid, false, sess.UserID, sessionID, err, func() map[string]string {
				return map[string]string{
					"reason": "consume_failed",
				}
			})
			return nil, err
		}
	}

	// Record consumed; the user must still exist before reissuing. Provider
	// infrastructure faults propagate as-is, only a confirmed miss tears the
	// session down.
	user, err := e.userProvider.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			if destroyErr := e.sessionStore.Destroy(ctx, sessionID); destroyErr != nil {
				log.Print("goSessions: session teardown after missing user failed")
			}
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshInvalid, false, claims.Subject, sessionID, ErrUserNotFound, nil)
			return nil, ErrUserNotFound
		}
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, claims.Subject, sessionID, err, func() map[string]string {
			return map[string]string{
				"reason": "user_lookup_failed",
			}
		})
		return nil, err
	}

	// The consumed session slot is dead; the replacement lives under a new
	// session ID so a leaked old ID stops resolving entirely.
	if err := e.sessionStore.Destroy(ctx, sessionID); err != nil {
		log.Print("goSessions: stale session cleanup failed")
	}

	identity := user.identity()
	token, newSessionID, err := e.authorize(ctx, &identity)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, identity.UserID, newSessionID, nil, func() map[string]string {
		return map[string]string{
			"previous_session_id": sessionID,
		}
	})

	return &LoginResult{
		Identity:  identity,
		SessionID: newSessionID,
		Token:     *token,
	}, nil
}

// ValidateSessionToken reports whether token is the live session token for
// sessionID. It never mutates the record: an absent or terminal record and
// a digest mismatch are all (false, nil). Errors are reserved for storage
// failures.
//
// ValidateSessionToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ValidateSessionToken(ctx context.Context, sessionID, token string) (bool, error) {
	rec, err := e.tokenStore.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if rec.Status != session.StatusActive {
		return false, nil
	}

	hash := internal.HashToken(token)
	return subtle.ConstantTimeCompare(rec.TokenHash[:], hash[:]) == 1, nil
}

// ValidateAccess verifies an access token signature and expiry and returns
// the identity carried in its claims. Access tokens are stateless: no Redis
// round trip happens here, and logout does not revoke them early.
//
// ValidateAccess does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ValidateAccess(ctx context.Context, tokenStr string) (*Identity, error) {
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}()
	}

	claims, err := e.jwtManager.ParseAccess(tokenStr)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	return &Identity{
		UserID:   claims.Subject,
		Username: claims.Username,
	}, nil
}

// Logout invalidates the session's token record and destroys the session
// blob. A session without a session token, and a session that is already
// gone, are both no-ops, which makes repeated logout idempotent. A storage
// failure while retiring the record is masked as [ErrUnauthorized] so the
// caller fails closed.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Logout(ctx context.Context, sessionID string) error {
	sess, err := e.sessionStore.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return ErrUnauthorized
	}

	if sess.RefreshToken == "" {
		if err := e.sessionStore.Destroy(ctx, sessionID); err != nil {
			return ErrUnauthorized
		}
		return nil
	}

	if err := e.tokenStore.Invalidate(ctx, sessionID, session.StatusLogout, false); err != nil {
		if !errors.Is(err, session.ErrRecordNotFound) {
			e.emitAudit(ctx, auditEventLogoutSession, false, sess.UserID, sessionID, ErrUnauthorized, func() map[string]string {
				return map[string]string{
					"reason": "record_invalidation_failed",
				}
			})
			return ErrUnauthorized
		}
	}

	if err := e.sessionStore.Destroy(ctx, sessionID); err != nil {
		return ErrUnauthorized
	}

	e.metricInc(MetricLogout)
	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, auditEventLogoutSession, true, sess.UserID, sessionID, nil, nil)

	return nil
}

// retireSession is the best-effort variant of [Engine.InvalidateSession],
// used on paths that are already failing.
func (e *Engine) retireSession(ctx context.Context, sessionID string, opts InvalidateOptions) {
	if err := e.InvalidateSession(ctx, sessionID, opts); err != nil {
		log.Print("goSessions: session retirement failed")
	}
}
