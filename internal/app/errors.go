package app

import "errors"

// Sentinel kinds for pipeline errors.
var (
	ErrAlreadyStarted = errors.New("pipeline already started")
	ErrSource         = errors.New("source failed")
	ErrOutput         = errors.New("output failed")
	ErrDispatch       = errors.New("dispatch failed")
)
