package lifecycle

import "errors"

var ErrForcedClose = errors.New("lifecycle: close timeout reached, connections destroyed")
