// Command gosessions-loadtest seeds a batch of live sessions and drives
// concurrent validate and refresh phases against the engine, reporting
// throughput and latency percentiles per phase.
//
// By default it runs against an embedded miniredis; point it at a real
// server with -redis-addr (or REDIS_ADDR) to measure network round-trips.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goSessions "github.com/MrEthical07/goSessions"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type sessionState struct {
	sid   string
	token string
	mu    sync.Mutex
}

func main() {
	var (
		sessions    = flag.Int("sessions", 10000, "number of sessions to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "operations per phase (validate + refresh)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	engine, err := goSessions.New().
		WithRedis(client).
		WithSecrets([]byte("loadtest-access-secret"), []byte("loadtest-session-secret")).
		WithUserProvider(&loadtestProvider{}).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	identity := &goSessions.Identity{
		UserID:   loadtestUserID,
		Email:    "loadtest@example.com",
		Username: "loadtest",
		Role:     "member",
	}

	states := make([]*sessionState, *sessions)
	fmt.Printf("seeding %d sessions...\n", *sessions)
	startSeed := time.Now()
	for i := 0; i < *sessions; i++ {
		token, sid, err := engine.Authorize(ctx, identity)
		if err != nil {
			fmt.Fprintf(os.Stderr, "authorize failed: %v\n", err)
			os.Exit(1)
		}
		states[i] = &sessionState{sid: sid, token: token.AccessToken}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	validateStats := runValidatePhase(ctx, engine, states, *ops, *concurrency)
	refreshStats := runRefreshPhase(ctx, engine, states, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("validate", validateStats)
	printStats("refresh", refreshStats)
}

func runValidatePhase(ctx context.Context, engine *goSessions.Engine, states []*sessionState, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(len(states))
				state := states[idx]

				state.mu.Lock()
				token := state.token
				state.mu.Unlock()

				t0 := time.Now()
				_, err := engine.ValidateAccess(ctx, token)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

func runRefreshPhase(ctx context.Context, engine *goSessions.Engine, states []*sessionState, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(len(states))
				state := states[idx]

				// Refresh rotates the session ID; the lock keeps a state
				// slot pointing at exactly one live session.
				state.mu.Lock()
				t0 := time.Now()
				res, err := engine.Refresh(ctx, state.sid)
				d := time.Since(t0)
				if err == nil {
					state.sid = res.SessionID
					state.token = res.Token.AccessToken
				} else {
					atomic.AddInt64(&failures, 1)
				}
				state.mu.Unlock()

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

const loadtestUserID = "u-loadtest"

// loadtestProvider backs refresh with a single fixed user. Credentials are
// never checked in this tool, so the password hash stays empty.
type loadtestProvider struct{}

func (loadtestProvider) GetUserByEmail(context.Context, string) (goSessions.UserRecord, error) {
	return goSessions.UserRecord{}, goSessions.ErrUserNotFound
}

func (loadtestProvider) GetUserByID(_ context.Context, userID string) (goSessions.UserRecord, error) {
	if userID != loadtestUserID {
		return goSessions.UserRecord{}, goSessions.ErrUserNotFound
	}
	return goSessions.UserRecord{
		UserID:   loadtestUserID,
		Email:    "loadtest@example.com",
		Username: "loadtest",
		Role:     "member",
	}, nil
}

func (loadtestProvider) CreateUser(context.Context, goSessions.CreateUserInput) (goSessions.UserRecord, error) {
	return goSessions.UserRecord{}, goSessions.ErrProviderDuplicateIdentifier
}
