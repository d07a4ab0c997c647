package goSessions

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goSessions/jwt"
	"github.com/MrEthical07/goSessions/session"
)

// Session returns the server-side session blob for sessionID, or
// [ErrSessionNotFound] when it does not exist.
//
// Session does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Session(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := e.sessionStore.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}

// TokenRecord returns the live token record for sessionID, or
// [ErrSessionNotFound] when no Active record exists.
func (e *Engine) TokenRecord(ctx context.Context, sessionID string) (*session.TokenRecord, error) {
	rec, err := e.tokenStore.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return rec, nil
}

// ArchivedTokenRecord returns the retired record for sessionID while its
// archive entry is still live. Useful for introspecting how a session
// ended.
func (e *Engine) ArchivedTokenRecord(ctx context.Context, sessionID string) (*session.TokenRecord, error) {
	rec, err := e.tokenStore.Archived(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return rec, nil
}

// ParseSessionToken verifies a session token signature and expiry without
// touching storage. Callers that need liveness must follow up with
// [Engine.ValidateSessionToken].
func (e *Engine) ParseSessionToken(tokenStr string) (*jwt.Claims, error) {
	return e.jwtManager.ParseSession(tokenStr)
}

// UserByID looks a user up through the [UserProvider] and returns the
// credential-free projection.
func (e *Engine) UserByID(ctx context.Context, userID string) (*Identity, error) {
	user, err := e.userProvider.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	identity := user.identity()
	return &identity, nil
}

// InvalidateOptions selects the terminal status a session is retired into
// and whether the transition counts as a token consumption. Consume controls
// the record's used_at stamp: logout leaves it unset, a refresh-path
// teardown sets it.
type InvalidateOptions struct {
	Status  session.Status
	Consume bool
}

// InvalidateSession retires the token record for sessionID and destroys the
// session blob. Unlike [Engine.Logout] the terminal status is chosen by the
// caller, which the refresh strategy uses to mark sessions it rejects as
// Expired.
func (e *Engine) InvalidateSession(ctx context.Context, sessionID string, opts InvalidateOptions) error {
	if err := e.tokenStore.Invalidate(ctx, sessionID, opts.Status, opts.Consume); err != nil {
		if !errors.Is(err, session.ErrRecordNotFound) {
			return ErrUnauthorized
		}
	}
	if err := e.sessionStore.Destroy(ctx, sessionID); err != nil {
		return ErrUnauthorized
	}

	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, auditEventSessionInvalidated, true, "", sessionID, nil, func() map[string]string {
		return map[string]string{
			"status": opts.Status.String(),
		}
	})

	return nil
}
