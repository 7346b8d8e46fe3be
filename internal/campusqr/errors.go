package campusqr

import (
	"errors"
	"fmt"
)

var (
	// ErrAccessDenied is returned when the backend answers 403.
	ErrAccessDenied = errors.New("access denied")
	// ErrRemoteUnavailable covers every other backend failure: transport
	// errors, timeouts, non-2xx responses and undecodable bodies.
	ErrRemoteUnavailable = errors.New("remote check-in backend unavailable")
	// ErrNotLoadable marks a failed read.
	ErrNotLoadable = fmt.Errorf("%w: not loadable", ErrRemoteUnavailable)
	// ErrNotStorable marks a failed write.
	ErrNotStorable = fmt.Errorf("%w: not storable", ErrRemoteUnavailable)
)
