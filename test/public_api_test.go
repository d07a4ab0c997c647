//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"testing"

	goSessions "github.com/MrEthical07/goSessions"
)

// Exercises the full session lifecycle through the exported API only:
// register, login, validate, refresh, logout.
func TestSessionLifecycle(t *testing.T) {
	engine, _, done := newIntegrationEngine(t)
	defer done()

	ctx := context.Background()

	reg, err := engine.Register(ctx, goSessions.RegisterRequest{
		Email:    "dana@example.com",
		Username: "dana",
		Password: "integration-pass-123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if reg.SessionID == "" || reg.Token.AccessToken == "" {
		t.Fatal("expected auto-login session")
	}

	login, err := engine.Login(ctx, "dana@example.com", "integration-pass-123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	identity, err := engine.ValidateAccess(ctx, login.Token.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccess failed: %v", err)
	}
	if identity.UserID != login.Identity.UserID {
		t.Fatalf("unexpected identity %+v", identity)
	}

	refreshed, err := engine.Refresh(ctx, login.SessionID)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if refreshed.SessionID == login.SessionID {
		t.Fatal("expected rotated session id")
	}

	if err := engine.Logout(ctx, refreshed.SessionID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := engine.Refresh(ctx, refreshed.SessionID); !errors.Is(err, goSessions.ErrSessionNotFound) {
		t.Fatalf("expected refresh rejected after logout, got %v", err)
	}

	// The registration session is independent and still healthy.
	if _, err := engine.Refresh(ctx, reg.SessionID); err != nil {
		t.Fatalf("expected registration session to refresh, got %v", err)
	}
}

func TestWrongCredentialsSequence(t *testing.T) {
	engine, _, done := newIntegrationEngine(t)
	defer done()

	ctx := context.Background()

	if _, err := engine.Register(ctx, goSessions.RegisterRequest{
		Email:    "dana@example.com",
		Username: "dana",
		Password: "integration-pass-123",
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := engine.Login(ctx, "dana@example.com", "bad-password-123"); !errors.Is(err, goSessions.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	// A failed attempt never affects subsequent correct logins.
	if _, err := engine.Login(ctx, "dana@example.com", "integration-pass-123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
}
