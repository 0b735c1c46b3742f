package tokenvault

import "context"

type userIDContextKey struct{}

// WithUserID attaches the active account's user ID to ctx. Authenticated transports
// read it to pick which stored tokens to use.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey{}, userID)
}

// UserIDFromContext returns the user ID attached with WithUserID.
func UserIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	userID, ok := ctx.Value(userIDContextKey{}).(string)
	return userID, ok && userID != ""
}
