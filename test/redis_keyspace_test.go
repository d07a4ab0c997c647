//go:build integration
// +build integration

package test

import (
	"context"
	"testing"

	goSessions "github.com/MrEthical07/goSessions"
)

// Pins the Redis key layout: session blobs under <prefix>:s:, live token
// records under <prefix>:tr:, retired records under <prefix>:arc:.
func TestRedisKeyspaceLayout(t *testing.T) {
	engine, rdb, done := newIntegrationEngine(t)
	defer done()

	ctx := context.Background()

	login, err := engine.Register(ctx, goSessions.RegisterRequest{
		Email:    "dana@example.com",
		Username: "dana",
		Password: "integration-pass-123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	sessionKey := "gs:s:" + login.SessionID
	recordKey := "gs:tr:" + login.SessionID
	archiveKey := "gs:arc:" + login.SessionID

	if rdb.Exists(ctx, sessionKey).Val() != 1 {
		t.Fatalf("expected session key %q", sessionKey)
	}
	if rdb.Exists(ctx, recordKey).Val() != 1 {
		t.Fatalf("expected live record key %q", recordKey)
	}
	if rdb.Exists(ctx, archiveKey).Val() != 0 {
		t.Fatal("expected no archive entry while active")
	}

	if err := engine.Logout(ctx, login.SessionID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if rdb.Exists(ctx, sessionKey).Val() != 0 {
		t.Fatal("expected session key removed after logout")
	}
	if rdb.Exists(ctx, recordKey).Val() != 0 {
		t.Fatal("expected live record removed after logout")
	}
	if rdb.Exists(ctx, archiveKey).Val() != 1 {
		t.Fatal("expected archive entry after logout")
	}

	// Keys carry TTLs so abandoned sessions cannot accumulate.
	login2, err := engine.Login(ctx, "dana@example.com", "integration-pass-123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if rdb.TTL(ctx, "gs:s:"+login2.SessionID).Val() <= 0 {
		t.Fatal("expected TTL on session key")
	}
	if rdb.TTL(ctx, "gs:tr:"+login2.SessionID).Val() <= 0 {
		t.Fatal("expected TTL on record key")
	}
	if rdb.TTL(ctx, archiveKey).Val() <= 0 {
		t.Fatal("expected TTL on archive key")
	}
}
