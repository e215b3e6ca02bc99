package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNotStarted = errors.New("service not started")
	ErrDerivation = errors.New("feature derivation failed")
)
