package services

import "errors"

// Error kinds returned by the domain services. Handlers map these onto
// response statuses; anything else is treated as an internal error and
// never leaks its storage-level detail to the client.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("invalid input")
)
