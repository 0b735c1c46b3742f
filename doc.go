// Package tokenvault stores per-user access and refresh tokens in a secure key-value
// store and gates client features on the server's advertised version.
//
// Construct a [Client] through [Builder]. The client exposes a [TokenRepository]
// and, when a server base URL is configured, version-gated capability checks backed
// by a cached [serverconfig.ServerConfig] snapshot.
//
// # Storage keys
//
// Every credential lives at "<appID>:<kind>_<userID>". The user ID always sits in
// the terminal position and the two kind tags differ in their first byte, so no
// user ID (whatever bytes it contains) can alias another kind or user.
//
// # Architecture boundaries
//
// tokenvault owns key derivation, metrics and audit emission. Persistence belongs to
// [securestore.Store] implementations; the remote configuration call belongs to
// [serverconfig.Fetcher]. The repository and the server config never reference
// each other.
//
// # What this package must NOT do
//
//   - Log, audit, or put token values in errors.
//   - Translate store errors: [ErrStoreAccess] reaches callers as the backend
//     reported it.
//   - Retry store operations internally.
package tokenvault
