package cache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrInvalidTTL is returned when a ping-pong cache is built with ttl <= 0.
	ErrInvalidTTL = errors.New("cache: ttl must be greater than zero")

	// ErrInvalidDelta is returned when a ping-pong cache is built with a
	// negative allowed delta.
	ErrInvalidDelta = errors.New("cache: allowed delta must not be negative")

	// ErrNoFireEvent is returned when a ping-pong cache has no event callback.
	ErrNoFireEvent = errors.New("cache: event callback is required")
)
