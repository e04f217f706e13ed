// Package apperr defines the error taxonomy shared by the store, services and
// transport layers. Callers match with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUniqueViolation    = errors.New("unique constraint violation")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
