package probe

import "errors"

// Sentinel errors for a probe run.
var (
	ErrUnreachable = errors.New("service unreachable")
	ErrUnhealthy   = errors.New("service unhealthy")
	ErrRejected    = errors.New("request rejected")
	ErrMismatch    = errors.New("response metadata mismatch")
)
