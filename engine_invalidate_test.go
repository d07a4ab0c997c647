package goSessions

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/goSessions/session"
)

func TestLogoutRetiresSession(t *testing.T) {
	up := newMockUserProvider()
	engine, _, done := newSessionEngine(t, sessionTestConfig(), up)
	defer done()

	user := seedUser(t, engine, up, "alice@example.com", "alice", "correct-password-123")

	login, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	sess, err := engine.Session(context.Background(), login.SessionID)
	if err != nil {
		t.Fatalf("Session lookup failed: %v", err)
	}
	sessionToken := sess.RefreshToken

	if err := engine.Logout(context.Background(), login.SessionID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, err := engine.Session(context.Background(), login.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session destroyed, got %v", err)
	}

	archived, err := engine.ArchivedTokenRecord(context.Background(), login.SessionID)
	if err != nil {
		t.Fatalf("ArchivedTokenRecord failed: %v", err)
	}
	if archived.Status != session.StatusLogout {
		t.Fatalf("expected Logout status, got %s", archived.Status)
	}
	if archived.InvalidatedAt == 0 {
		t.Fatal("expected invalidated_at stamped")
	}
	// Logout retires the token without consuming it.
	if archived.UsedAt != 0 {
		t.Fatalf("expected used_at unset on logout, got %d", archived.UsedAt)
	}
	if archived.SessionID != "" {
		t.Fatalf("expected session id cleared, got %q", archived.SessionID)
	}
	if archived.UserID != user.UserID {
		t.Fatalf("expected user id preserved, got %q", archived.UserID)
	}

	ok, err := engine.ValidateSessionToken(context.Background(), login.SessionID, sessionToken)
	if err != nil {
		t.Fatalf("ValidateSessionToken failed: %v", err)
	}
	if ok {
		t.Fatal("expected session token invalid after logout")
	}
}

func TestLogoutIdempotent(t *testing.T) {
	up := newMockUserProvider()
	engine, _, done := newSessionEngine(t, sessionTestConfig(), up)
	defer done()

	seedUser(t, engine, up, "alice@example.com", "alice", "correct-password-123")

	login, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := engine.Logout(context.Background(), login.SessionID); err != nil {
		t.Fatalf("first Logout failed: %v", err)
	}
	if err := engine.Logout(context.Background(), login.SessionID); err != nil {
		t.Fatalf("second Logout should be a no-op, got %v", err)
	}
}

func TestLogoutUnknownSessionIsNoOp(t *testing.T) {
	up := newMockUserProvider()
	engine, _, done := newSessionEngine(t, sessionTestConfig(), up)
	defer done()

	if err := engine.Logout(context.Background(), "never-existed"); err != nil {
		t.Fatalf("expected nil for unknown session, got %v", err)
	}
}

func TestAccessTokenOutlivesLogout(t *testing.T) {
	up := newMockUserProvider()
	engine, _, done := newSessionEngine(t, sessionTestConfig(), up)
	defer done()

	user := seedUser(t, engine, up, "alice@example.com", "alice", "correct-password-123")

	login, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := engine.Logout(context.Background(), login.SessionID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	// Access tokens are stateless: logout revokes the session, not tokens
	// that were already issued.
	identity, err := engine.ValidateAccess(context.Background(), login.Token.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccess failed after logout: %v", err)
	}
	if identity.UserID != user.UserID {
		t.Fatalf("unexpected identity %+v", identity)
	}
}

func TestInvalidateSessionWithStatus(t *testing.T) {
	up := newMockUserProvider()
	engine, _, done := newSessionEngine(t, sessionTestConfig(), up)
	defer done()

	seedUser(t, engine, up, "alice@example.com", "alice", "correct-password-123")

	login, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	opts := InvalidateOptions{Status: session.StatusExpired, Consume: true}
	if err := engine.InvalidateSession(context.Background(), login.SessionID, opts); err != nil {
		t.Fatalf("InvalidateSession failed: %v", err)
	}

	archived, err := engine.ArchivedTokenRecord(context.Background(), login.SessionID)
	if err != nil {
		t.Fatalf("ArchivedTokenRecord failed: %v", err)
	}
	if archived.Status != session.StatusExpired {
		t.Fatalf("expected Expired status, got %s", archived.Status)
	}
	if archived.UsedAt == 0 {
		t.Fatal("expected used_at stamped on consuming invalidation")
	}
	if _, err := engine.Session(context.Background(), login.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session destroyed, got %v", err)
	}
}

func TestInvalidateSessionRejectsActiveStatus(t *testing.T) {
	up := newMockUserProvider()
	engine, _, done := newSessionEngine(t, sessionTestConfig(), up)
	defer done()

	seedUser(t, engine, up, "alice@example.com", "alice", "correct-password-123")

	login, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := engine.InvalidateSession(context.Background(), login.SessionID, InvalidateOptions{Status: session.StatusActive}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for Active status, got %v", err)
	}
}

func TestValidateSessionTokenMismatch(t *testing.T) {
	up := newMockUserProvider()
	engine, _, done := newSessionEngine(t, sessionTestConfig(), up)
	defer done()

	user := seedUser(t, engine, up, "alice@example.com", "alice", "correct-password-123")

	login, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	other, _, err := engine.jwtManager.CreateSession(user.UserID, user.Username)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	ok, err := engine.ValidateSessionToken(context.Background(), login.SessionID, other)
	if err != nil {
		t.Fatalf("ValidateSessionToken failed: %v", err)
	}
	if ok {
		t.Fatal("expected mismatching token to be rejected")
	}

	// A pure check never consumes or retires the record.
	rec, err := engine.TokenRecord(context.Background(), login.SessionID)
	if err != nil {
		t.Fatalf("TokenRecord failed: %v", err)
	}
	if rec.Status != session.StatusActive {
		t.Fatalf("expected record untouched, got %s", rec.Status)
	}
}

func TestValidateSessionTokenUnknownSession(t *testing.T) {
	up := newMockUserProvider()
	engine, _, done := newSessionEngine(t, sessionTestConfig(), up)
	defer done()

	ok, err := engine.ValidateSessionToken(context.Background(), "nope", "token")
	if err != nil {
		t.Fatalf("ValidateSessionToken failed: %v", err)
	}
	if ok {
		t.Fatal("expected unknown session to be rejected")
	}
}
