package entity

import "errors"

// Sentinel errors for entity operations.
var (
	// ErrOutOfRange is returned when a value lies outside the parameter's
	// declared min/max and is not a special value.
	ErrOutOfRange = errors.New("entity: value out of range")

	// ErrInvalidValue is returned when a value cannot be converted to the
	// parameter type or is not part of its value list.
	ErrInvalidValue = errors.New("entity: invalid value")

	// ErrNotWritable is returned when writing to a read-only parameter.
	ErrNotWritable = errors.New("entity: parameter is not writable")

	// ErrUnknownEffect is returned when a light is asked for an effect it
	// does not support.
	ErrUnknownEffect = errors.New("entity: unknown effect")

	// ErrNoTilt is returned when a cover without slats is asked to tilt.
	ErrNoTilt = errors.New("entity: cover has no tilt")
)
