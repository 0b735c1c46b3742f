package tokenvault

import (
	"errors"

	"github.com/MrEthical07/tokenvault/securestore"
)

var (
	// ErrNotFound is returned when no token is stored for the requested kind and user.
	// Callers treat it as "not authenticated".
	ErrNotFound = errors.New("credential not found")
	// ErrStoreAccess is the secure store unavailability sentinel. Backends wrap it, so
	// match with errors.Is.
	ErrStoreAccess = securestore.ErrStoreAccess
	// ErrInvalidUserID is returned for an empty user ID before the store is touched.
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrClientNotReady is returned by methods called on a nil or closed Client.
	ErrClientNotReady = errors.New("client not initialized")
	// ErrServerConfigUnavailable is returned when no server base URL is configured.
	ErrServerConfigUnavailable = errors.New("server config not configured")
)
