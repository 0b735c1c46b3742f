package securestore

import (
	"context"
	"fmt"
)

// Store is the secure key-value primitive. Implementations must provide per-key
// atomicity for Set and Delete; concurrent writers to one key resolve last-write-wins.
type Store interface {
	// Get returns the value stored at key. ok is false when nothing is stored.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value at key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// accessError wraps cause so callers can match both ErrStoreAccess and the cause.
func accessError(cause error) error {
	return fmt.Errorf("%w: %w", ErrStoreAccess, cause)
}

func checkContext(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return accessError(err)
	}
	return nil
}
