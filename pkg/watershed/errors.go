package watershed

import "errors"

var (
	// ErrInvalidConfig is returned by Config.Validate and New for unusable settings.
	ErrInvalidConfig = errors.New("watershed: invalid configuration")

	// ErrUnknownMethod is returned when parsing an unsupported method name.
	ErrUnknownMethod = errors.New("watershed: unknown method")

	// ErrUnknownConnectivity is returned when parsing anything other than 4 or 8.
	ErrUnknownConnectivity = errors.New("watershed: unknown connectivity")
)
