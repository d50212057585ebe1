package source

import "errors"

// Sentinel kinds for source errors.
var (
	ErrOpen          = errors.New("source open failed")
	ErrRead          = errors.New("source read failed")
	ErrUnknownFormat = errors.New("unknown source format")
)
