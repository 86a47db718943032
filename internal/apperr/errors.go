// Package apperr holds the sentinel errors shared by the service and its
// transports.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotOpen       = errors.New("editor session not open")
	ErrInvalidPath   = errors.New("invalid path")
	ErrInvalidInput  = errors.New("invalid input")
)
