package modelstore

import "errors"

// Sentinel kinds for artifact loading.
var (
	ErrNotFound = errors.New("model file not found")
	ErrRead     = errors.New("model file unreadable")
	ErrDecode   = errors.New("model file could not be decoded")
)

// Failure reasons used as metric labels.
const (
	reasonMissing = "missing"
	reasonRead    = "read"
	reasonDecode  = "decode"
)
