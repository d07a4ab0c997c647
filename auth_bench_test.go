package goSessions

import (
	"context"
	"testing"

	"github.com/MrEthical07/goSessions/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func BenchmarkValidateAccess(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	res, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123")
	if err != nil {
		b.Fatalf("login failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.ValidateAccess(context.Background(), res.Token.AccessToken); err != nil {
			b.Fatalf("validate failed: %v", err)
		}
	}
}

func BenchmarkRefresh(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	res, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123")
	if err != nil {
		b.Fatalf("login failed: %v", err)
	}
	sid := res.SessionID

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		next, err := engine.Refresh(context.Background(), sid)
		if err != nil {
			b.Fatalf("refresh failed: %v", err)
		}
		sid = next.SessionID
	}
}

func BenchmarkLogin(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123")
		if err != nil {
			b.Fatalf("login failed: %v", err)
		}
		_ = engine.Logout(context.Background(), res.SessionID)
	}
}

func newBenchmarkEngine(tb testing.TB) (*Engine, func()) {
	tb.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		tb.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := sessionTestConfig()
	cfg.Metrics.Enabled = false
	cfg.Audit.Enabled = false

	hasher, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		tb.Fatalf("argon2 init failed: %v", err)
	}
	hash, err := hasher.Hash(context.Background(), "correct-password-123")
	if err != nil {
		tb.Fatalf("hash failed: %v", err)
	}

	up := &mockUserProvider{
		users: map[string]UserRecord{
			"u1": {
				UserID:       "u1",
				Email:        "alice@example.com",
				Username:     "alice",
				PasswordHash: hash,
				Role:         "member",
			},
		},
		byEmail: map[string]string{
			"alice@example.com": "u1",
		},
	}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithSecrets([]byte("access-secret-for-tests"), []byte("session-secret-for-tests")).
		WithUserProvider(up).
		Build()
	if err != nil {
		tb.Fatalf("Build failed: %v", err)
	}

	return engine, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}
