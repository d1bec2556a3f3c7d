package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput indicates the caller supplied a malformed request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden indicates a failed capability check.
	ErrForbidden = errors.New("forbidden")
	// ErrUnavailable indicates a backend or dependency could not serve the request.
	ErrUnavailable = errors.New("unavailable")
)
