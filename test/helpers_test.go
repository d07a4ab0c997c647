//go:build integration
// +build integration

package test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	goSessions "github.com/MrEthical07/goSessions"
)

type memoryUserProvider struct {
	mu      sync.Mutex
	users   map[string]goSessions.UserRecord
	byEmail map[string]string
}

func newMemoryUserProvider() *memoryUserProvider {
	return &memoryUserProvider{
		users:   map[string]goSessions.UserRecord{},
		byEmail: map[string]string{},
	}
}

func (m *memoryUserProvider) GetUserByEmail(_ context.Context, email string) (goSessions.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.byEmail[email]
	if !ok {
		return goSessions.UserRecord{}, goSessions.ErrUserNotFound
	}
	return m.users[userID], nil
}

func (m *memoryUserProvider) GetUserByID(_ context.Context, userID string) (goSessions.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return goSessions.UserRecord{}, goSessions.ErrUserNotFound
	}
	return user, nil
}

func (m *memoryUserProvider) CreateUser(_ context.Context, input goSessions.CreateUserInput) (goSessions.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[input.Email]; exists {
		return goSessions.UserRecord{}, goSessions.ErrProviderDuplicateIdentifier
	}
	user := goSessions.UserRecord{
		UserID:       "u" + input.Username,
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
		CreatedAt:    time.Now().Unix(),
	}
	m.users[user.UserID] = user
	m.byEmail[user.Email] = user.UserID
	return user, nil
}

func newIntegrationEngine(t *testing.T) (*goSessions.Engine, *redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	engine, err := goSessions.New().
		WithRedis(rdb).
		WithSecrets([]byte("integration-access-secret"), []byte("integration-session-secret")).
		WithUserProvider(newMemoryUserProvider()).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return engine, rdb, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}
