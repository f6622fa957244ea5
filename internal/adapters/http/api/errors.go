package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrEmptyRoster  = errors.New("roster has no agents")
	ErrInvalidLimit = errors.New("invalid limit")
)
