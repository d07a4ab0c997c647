package goSessions

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestRefreshConcurrencySingleWinner(t *testing.T) {
	up := newMockUserProvider()
	engine, _, done := newSessionEngine(t, sessionTestConfig(), up)
	defer done()

	seedUser(t, engine, up, "alice@example.com", "alice", "correct-password-123")

	login, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)

	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := engine.Refresh(context.Background(), login.SessionID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	success := 0
	fail := 0
	for err := range results {
		if err == nil {
			success++
			continue
		}
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrRefreshReuse) || errors.Is(err, ErrTokenNotActive) {
			fail++
			continue
		}
		t.Fatalf("unexpected refresh error: %v", err)
	}

	if success != 1 {
		t.Fatalf("expected exactly one refresh success, got %d", success)
	}
	if fail != n-1 {
		t.Fatalf("expected %d refresh failures, got %d", n-1, fail)
	}
}
