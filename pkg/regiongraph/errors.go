package regiongraph

import "errors"

var (
	// ErrInvalidConfig is returned for unusable merge settings.
	ErrInvalidConfig = errors.New("regiongraph: invalid configuration")

	// ErrUnknownMergeMode is returned when parsing an unsupported mode name.
	ErrUnknownMergeMode = errors.New("regiongraph: unknown merge mode")

	// ErrNegativeLabel is returned when a label raster contains a negative label.
	ErrNegativeLabel = errors.New("regiongraph: negative label")

	// ErrLabelOutOfRange is returned when a label has no equivalence entry.
	ErrLabelOutOfRange = errors.New("regiongraph: label out of range")

	// ErrNilPolicy is returned when a builder is used without a policy or accumulator.
	ErrNilPolicy = errors.New("regiongraph: nil policy")
)
