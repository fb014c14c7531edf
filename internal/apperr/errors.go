// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalid     = errors.New("invalid input")
	ErrFormat      = errors.New("invalid import format")
	ErrStorage     = errors.New("storage failure")
	ErrUnavailable = errors.New("remote unavailable")
	ErrCancelled   = errors.New("cancelled by user")
)
