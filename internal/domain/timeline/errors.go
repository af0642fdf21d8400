package timeline

import "errors"

// ErrUnknownGranularity is returned for anything other than weekly or monthly.
var ErrUnknownGranularity = errors.New("unknown granularity")
