package domain

import "errors"

// Input errors - fatal; no partial differential result is meaningful
// without a complete, well-formed snapshot sequence
var (
	// ErrInsufficientSnapshots indicates fewer than two snapshots were supplied
	ErrInsufficientSnapshots = errors.New("differential analysis requires at least two snapshots")

	// ErrUnknownVolume indicates an object references a volume ID absent
	// from its own snapshot's volume set
	ErrUnknownVolume = errors.New("object references unknown volume")

	// ErrInvalidSnapshot indicates a snapshot failed structural validation
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Config errors
var (
	// ErrConfigNotFound indicates config file not found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates config file is malformed
	ErrConfigInvalid = errors.New("invalid config")
)
