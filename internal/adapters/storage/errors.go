package storage

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrOpen  = errors.New("open failed")
	ErrWrite = errors.New("write failed")
)
