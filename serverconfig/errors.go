package serverconfig

import "errors"

var (
	// ErrFetchFailed is returned when the configuration endpoint cannot be reached or
	// answers with a non-success status.
	ErrFetchFailed = errors.New("server config fetch failed")
	// ErrInvalidResponse is returned when the configuration body cannot be decoded.
	ErrInvalidResponse = errors.New("invalid server config response")
)
