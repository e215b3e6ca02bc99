package features

import "errors"

// Sentinel error kinds for feature derivation.
var (
	ErrValidation = errors.New("invalid match state")
	ErrDerive     = errors.New("feature derivation failed")
)
