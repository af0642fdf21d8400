package breaker

import "errors"

// ErrUnavailable marks calls rejected because the breaker is open.
var ErrUnavailable = errors.New("row store unavailable")
