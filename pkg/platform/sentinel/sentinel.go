package sentinel

import "errors"

// Infrastructure facts returned by stores and adapters, optionally wrapped.
// Services translate them into domain errors; they never reach a transport.
//
//   - ErrNotFound: no record under the key
//   - ErrConflict: a uniqueness constraint refused the write
//   - ErrExpired: the stored entry outlived its TTL
//   - ErrInvalidState: record exists but not in a state the caller can act on
//   - ErrUnavailable: backend could not be reached or kept failing
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
