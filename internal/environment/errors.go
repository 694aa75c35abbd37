package environment

import "errors"

var (
	// ErrInvalidURL is returned when a base or override URL cannot be used
	// to build a URLData.
	ErrInvalidURL = errors.New("invalid environment url")

	// ErrNoResolution is never returned by the Resolver because the default
	// tier always produces a value. It exists so callers can match on it.
	ErrNoResolution = errors.New("no environment could be resolved")
)
