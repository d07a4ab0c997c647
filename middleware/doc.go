// Package middleware exposes HTTP adapters for the closed set of
// authentication strategies built on top of goSessions.Engine.
//
// # Strategies
//
//   - [LoginStrategy] — JSON credential body, delegates to Engine.ValidateUser.
//   - [AccessTokenStrategy] — bearer access token, stateless verification.
//   - [RefreshStrategy] — session cookie, verifies the stored session token
//     and tears the session down on any failure.
//
// Each strategy resolves a request to an Identity or a failure; [Guard]
// turns one strategy into net/http middleware and injects the identity into
// the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// the Engine.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from the Engine.
package middleware
