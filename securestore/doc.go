// Package securestore provides the secure key-value boundary consumed by the token
// repository, plus the backends shipped with tokenvault.
//
// # Backends
//
//   - [MemoryStore]: process-local map, used by tests and ephemeral CLIs.
//   - [RedisStore]: Redis strings under a key prefix, for shared agents.
//   - [KeyringStore]: the OS keychain (macOS Keychain, Secret Service, Windows
//     Credential Manager).
//   - [FileStore]: an AES-256-GCM sealed JSON file keyed by an Argon2id passphrase.
//
// Every backend reports unavailability by wrapping [ErrStoreAccess]. A missing key
// is not an error: Get returns ok=false.
//
// # What this package must NOT do
//
//   - Import tokenvault or any sibling package.
//   - Interpret stored values or log them.
//   - Retry failed operations; callers decide.
package securestore
