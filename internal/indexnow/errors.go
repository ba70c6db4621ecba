package indexnow

import (
	"errors"
	"fmt"
)

// ErrConfiguration reports that the subsystem cannot function: the site
// origin cannot be resolved, the site domain is empty, or a URL without a
// scheme or host reached the payload builder.
var ErrConfiguration = errors.New("indexnow: improperly configured")

// TransportError describes a failed outbound submission. It is logged and
// recorded but never returned from the public submission API.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("indexnow submission to %s failed with status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("indexnow submission to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func configurationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
