// Package transport provides an http.RoundTripper that authenticates outgoing
// requests with the access token stored for the request's user.
//
// The user is taken from the request context ([tokenvault.WithUserID]). When a
// [Refresher] is configured, access tokens that are about to expire are exchanged
// using the stored refresh token before the request is sent, and a 401 response
// triggers one forced refresh and retry. Refreshes for the same user are collapsed
// into a single call.
//
// # Architecture boundaries
//
// Token storage goes through [tokenvault.TokenRepository]. The token endpoint is
// behind [Refresher]; this package never talks to it directly.
//
// # What this package must NOT do
//
//   - Log or wrap token values into errors.
//   - Verify token signatures. Access tokens are only decoded for their exp claim.
//   - Mutate the caller's *http.Request.
package transport
