package errs

import (
	"errors"
)

var (
	// ErrBusy is returned when a fetch is requested while another one is in flight.
	ErrBusy = errors.New("another request is in flight")

	// ErrNotConfigured is returned by optional collaborators that were not set up.
	ErrNotConfigured = errors.New("not configured")
)
