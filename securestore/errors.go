package securestore

import "errors"

var (
	// ErrStoreAccess is returned (wrapped) when the backing store cannot be reached,
	// is locked, or rejects the caller.
	ErrStoreAccess = errors.New("secure store unavailable")
	// ErrStoreLocked is returned alongside ErrStoreAccess by stores that model a
	// locked keychain.
	ErrStoreLocked = errors.New("secure store locked")
	// ErrInvalidKey is returned for an empty storage key.
	ErrInvalidKey = errors.New("invalid storage key")
)
