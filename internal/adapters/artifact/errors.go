package artifact

import "errors"

// Sentinel errors returned by Decode.
var (
	ErrCorrupt           = errors.New("corrupt artifact")
	ErrUnsupportedFormat = errors.New("unsupported artifact format")
	ErrUnknownKind       = errors.New("unknown artifact type")
	ErrUnresolvedClass   = errors.New("unresolved class reference")
	ErrInvalidState      = errors.New("invalid object state")
	ErrTooDeep           = errors.New("artifact nesting too deep")
)
