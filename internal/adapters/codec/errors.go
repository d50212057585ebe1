package codec

import "errors"

// Sentinel kinds for codec errors.
var (
	ErrMalformed = errors.New("malformed buildings message")
)
