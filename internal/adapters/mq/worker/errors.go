package worker

import "errors"

// Sentinel kinds for pool errors.
var (
	ErrNotStarted     = errors.New("pool not started")
	ErrAlreadyStarted = errors.New("pool already started")
	ErrStopped        = errors.New("pool stopped")
	ErrNotAcquired    = errors.New("unit not acquired")
	ErrUnitBusy       = errors.New("unit already has a task")
	ErrEngine         = errors.New("rectangle computation failed")
)
