package service

import "errors"

var (
	// ErrNotStarted is returned when an operation requires a started service.
	ErrNotStarted = errors.New("service not started")

	// ErrNotEvaluated is returned when a run has no evaluated cycle yet.
	ErrNotEvaluated = errors.New("run not evaluated")
)
