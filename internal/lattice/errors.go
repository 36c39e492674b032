package lattice

import "errors"

// Domain errors for lattice operations.
var (
	// ErrConfiguration indicates an invalid lattice size, variant, coupling
	// or temperature.
	ErrConfiguration = errors.New("lattice: invalid configuration")

	// ErrState indicates an observable or sweep requested before the spin
	// configuration was initialized.
	ErrState = errors.New("lattice: spin configuration not initialized")
)
