// Package goSessions provides a low-latency session engine with JWT access
// tokens, rotating single-use session tokens, and Redis-backed session and
// token record lifecycle tracking.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goSessions is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (Identity, LoginResult, MetricsSnapshot, etc.). Session
// encoding and token record storage live under session/, hashing under
// password/, token signing under jwt/.
//
// # What this package must NOT do
//
//   - Expose Redis clients or encoding details in its public API beyond the
//     session models callers need.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Import any sub-package that re-imports goSessions (no import cycles).
//
// # Performance contract
//
// ValidateAccess is the hot path. It completes without Redis round-trips.
// Refresh and Login are allowed a handful of Redis round-trips per call, and
// every token record state transition is a single Lua script.
package goSessions
