package shared

import "errors"

// Channel faults. Both ends recover from them locally by reconnecting.
var (
	ErrConnectTimeout   = errors.New("timed out waiting for the signal pipe")
	ErrBrokenConnection = errors.New("signal pipe connection broken")
)
