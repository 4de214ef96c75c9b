package central

import "errors"

// Sentinel errors for central operations.
var (
	// ErrNoName is returned when a central is created without a name.
	ErrNoName = errors.New("central: name is required")

	// ErrNoRegistry is returned when a central is created without a model registry.
	ErrNoRegistry = errors.New("central: model registry is required")

	// ErrAlreadyStarted is returned by Start and AddClient once started.
	ErrAlreadyStarted = errors.New("central: already started")

	// ErrDuplicateClient is returned when two clients share an interface id.
	ErrDuplicateClient = errors.New("central: duplicate interface id")

	// ErrNoClient is returned when an operation needs a client and there is none.
	ErrNoClient = errors.New("central: no client")

	// ErrDeviceNotFound is returned for an unknown device address.
	ErrDeviceNotFound = errors.New("central: device not found")

	// ErrEntityNotFound is returned for an unknown entity id.
	ErrEntityNotFound = errors.New("central: entity not found")
)
