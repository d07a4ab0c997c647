// Package password implements password hashing and verification with Argon2id
// defaults.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// # Concurrency
//
// Key derivations run behind a weighted semaphore sized by
// [Config.MaxConcurrency]. Callers block until a slot frees up or their
// context is cancelled, which bounds the memory a burst of logins can pin.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (length,
// reuse history) is enforced by the caller.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Import any other goSessions package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
