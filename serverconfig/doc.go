// Package serverconfig models the server capability descriptor returned by the
// remote configuration endpoint and answers version-gated capability queries.
//
// # Capability gating
//
// [ServerConfig.SupportsCapability] compares the server version against a trusted
// minimum. The server version must be exactly MAJOR.MINOR.PATCH with decimal
// components; anything else means the capability is absent. The check never errors.
//
// # Architecture boundaries
//
// [ServerConfig] values are immutable snapshots. [Fetcher] owns the network call
// and publishes a new snapshot per successful fetch; it never mutates an old one.
//
// # What this package must NOT do
//
//   - Import tokenvault or touch credentials.
//   - Mutate a published snapshot.
package serverconfig
