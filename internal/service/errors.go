package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/location-checkin/internal/campusqr"
	"github.com/iliyamo/location-checkin/internal/lock"
)

// Error kinds.  Every error returned by Service matches one of these with
// errors.Is, except the caller's own context error when ctx ends first.
var (
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrPlaceNotFound     = errors.New("place not found")
	ErrAccessDenied      = campusqr.ErrAccessDenied
	ErrRemoteUnavailable = campusqr.ErrRemoteUnavailable
	ErrNotLoadable       = campusqr.ErrNotLoadable
	ErrNotStorable       = campusqr.ErrNotStorable
	ErrLockUnavailable   = lock.ErrUnavailable
)

// Error is a client-facing failure.  Msg is safe to return verbatim to
// the caller; Kind classifies it.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Seat validation failures, see ValidateSeat.
var (
	ErrSeatRequired   = &Error{Kind: ErrValidation, Msg: "seat required: location has seats activated, a seat number must be set"}
	ErrSeatNotAllowed = &Error{Kind: ErrValidation, Msg: "seat not allowed: location has no seats activated, a seat number cannot be set"}
	ErrSeatExceeds    = &Error{Kind: ErrValidation, Msg: "seat exceeds capacity: seat number must not exceed the maximum capacity of the location"}
	ErrSeatTooLow     = &Error{Kind: ErrValidation, Msg: "seat too low: seat number must be at least 1"}
)

// resultLabel classifies err for metrics.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrPlaceNotFound):
		return "not_found"
	case errors.Is(err, ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, ErrLockUnavailable):
		return "lock_unavailable"
	case errors.Is(err, ErrRemoteUnavailable):
		return "remote_unavailable"
	}
	return "error"
}
