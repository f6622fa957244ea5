package completion

import "errors"

// Sentinel kinds for completion errors. ErrEmptyRequest and ErrNoContent are
// permanent: retrying the same request cannot fix them.
var (
	ErrEmptyRequest = errors.New("completion request has no messages")
	ErrNoContent    = errors.New("completion returned no content")
	ErrComplete     = errors.New("completion failed")
)
