package evaluator

import "errors"

// Sentinel kinds for store errors.
var (
	ErrRunNotFound = errors.New("run not found")
	ErrEmptyRunID  = errors.New("run id must not be empty")
)
