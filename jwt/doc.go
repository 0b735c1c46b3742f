// Package jwt inspects access tokens issued by the identity server.
//
// The client holds no verification key, so [ParseUnverified] only decodes the
// claims. Callers use the result for scheduling decisions (refresh before expiry,
// showing the signed-in account); it must never be used to authorize anything.
package jwt
