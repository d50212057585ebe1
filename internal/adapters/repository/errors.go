package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrInvalidBuilding = errors.New("building has non-finite fields")
)
