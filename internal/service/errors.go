package service

import "errors"

// Attendance flow errors. Handlers translate them into client messages;
// anything else is an internal failure.
var (
	ErrNotFound     = errors.New("attendance token not found")
	ErrExpired      = errors.New("attendance token or session expired")
	ErrClosed       = errors.New("attendance closed")
	ErrForbidden    = errors.New("student not part of this scope")
	ErrUnknownScope = errors.New("lecture or exam not found")
	ErrNotPresenter = errors.New("caller may not manage attendance for this scope")
	ErrInvalidScope = errors.New("operation not supported for this scope")
)

// IsRescan reports whether the client should scan a fresh code. Not-found
// and expired are deliberately indistinguishable to the client.
func IsRescan(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired)
}
