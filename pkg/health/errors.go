package health

import "errors"

// ErrCheckTimeout marks a check that did not finish within the configured timeout.
var ErrCheckTimeout = errors.New("health: check timeout")
