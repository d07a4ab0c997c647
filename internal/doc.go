// Package internal contains helper utilities that are intentionally private to
// goSessions, including secure random generation and token digest helpers.
//
// # What this package must NOT do
//
//   - Export types that appear in the public goSessions API.
//   - Be imported by any package outside the goSessions module.
package internal
