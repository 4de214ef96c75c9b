package client

import "errors"

// Sentinel errors for client operations.
var (
	// ErrUnknownAddress is returned for an address the backend does not know.
	ErrUnknownAddress = errors.New("client: unknown address")

	// ErrUnknownParameter is returned for a parameter missing from the
	// channel's paramset description.
	ErrUnknownParameter = errors.New("client: unknown parameter")

	// ErrNotConnected is returned when the backend connection is down.
	ErrNotConnected = errors.New("client: not connected")

	// ErrNoSink is returned when a client is created without a sink.
	ErrNoSink = errors.New("client: sink is required")

	// ErrNoInterfaceID is returned when a client is created without an
	// interface id.
	ErrNoInterfaceID = errors.New("client: interface id is required")

	// ErrInvalidFixture is returned when a device fixture cannot be used.
	ErrInvalidFixture = errors.New("client: invalid fixture")
)
