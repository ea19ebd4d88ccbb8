package models

import (
	"errors"
	"fmt"
)

// Domain errors shared by the database and service layers. Validation errors
// terminate an operation before any write happens.
var (
	ErrReportNotFound         = errors.New("report not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrUnknownStatus          = errors.New("unknown status")
	ErrForbidden              = errors.New("forbidden")
	ErrDetailNotFound         = errors.New("report detail not found")
	ErrDetailAlreadyExists    = errors.New("report detail already exists")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
)

// ProgressionError rejects a status transition whose requested rank is not
// strictly greater than the current rank. It carries both status labels so
// the caller can report them.
type ProgressionError struct {
	Current   Status
	Attempted Status
}

func (e *ProgressionError) Error() string {
	return fmt.Sprintf("invalid status progression from %q to %q: statuses only move pendente -> em resolução -> resolvido",
		e.Current.Label(), e.Attempted.Label())
}

// IsProgressionError reports whether err is a ProgressionError and returns it
func IsProgressionError(err error) (*ProgressionError, bool) {
	var pe *ProgressionError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
