package cache

import "errors"

var (
	// ErrBackendRequired is returned when a Manager is built without a backend.
	ErrBackendRequired = errors.New("cache backend required")

	// ErrInvalidConfig is returned for unusable cache configuration at startup.
	ErrInvalidConfig = errors.New("invalid cache configuration")

	// ErrNotCounter is returned when Increment targets a non-integer value.
	ErrNotCounter = errors.New("value at key is not a counter")
)
