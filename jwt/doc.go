// Package jwt manages access-token and session-token issuance and verification
// using per-class HS256 secrets and strict validation semantics suitable for
// low-latency authentication paths.
package jwt
