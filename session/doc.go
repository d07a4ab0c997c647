// Package session provides Redis-backed persistence for authentication
// sessions and their token lifecycle records.
//
// # Binary encoding
//
// Sessions and token records are stored in Redis as compact binary blobs.
// The record layout keeps a fixed-width header so the store's Lua scripts
// can transition a record by splicing bytes in place instead of re-encoding.
//
// # Architecture boundaries
//
// This package owns the [Store] (session blobs), the [TokenStore] (token
// record state machine), and the [Session] and [TokenRecord] models. It does
// NOT interpret JWT tokens or decide authentication policy — those
// responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import goSessions, jwt, or password (no upward imports).
//   - Perform application-level authorization decisions.
//   - Store plaintext tokens in [TokenRecord] fields.
package session
