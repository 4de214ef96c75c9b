package bridge

import "errors"

// Errors returned by the bridge. Check with errors.Is.
var (
	// ErrNoCentral is returned when a bridge is created without a central.
	ErrNoCentral = errors.New("bridge: central is required")

	// ErrNoMQTTClient is returned when a bridge is created without an MQTT client.
	ErrNoMQTTClient = errors.New("bridge: MQTT client is required")

	// ErrUnknownCommand is returned for a command name the bridge does not know.
	ErrUnknownCommand = errors.New("bridge: unknown command")

	// ErrUnsupportedEntity is returned when an entity cannot run a command.
	ErrUnsupportedEntity = errors.New("bridge: command not supported by entity")

	// ErrInvalidParameters is returned when command parameters do not decode.
	ErrInvalidParameters = errors.New("bridge: invalid command parameters")
)
