package ddns

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a caller passes an empty or malformed value.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNullArgument is returned when a required object is nil.
	ErrNullArgument = errors.New("nil argument")

	// ErrDecode is returned when a provider response does not match the record schema.
	ErrDecode = errors.New("unable to decode response")

	// ErrAllSourcesFailed is returned when no IP lookup service produced a valid IPv4 address.
	ErrAllSourcesFailed = errors.New("all IP lookup services failed")
)

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// ProviderError describes a DNS provider call that failed in transport or returned a non-success status.
type ProviderError struct {
	Method     string
	URL        string
	StatusCode int    // zero when the request never got a response
	Status     string
	Body       string // truncated response body, if any
	Err        error  // transport error, if any
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s", e.Method, e.URL, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s %s returned %s: %s", e.Method, e.URL, e.Status, e.Body)
	}
	return fmt.Sprintf("%s %s returned %s", e.Method, e.URL, e.Status)
}

func (e *ProviderError) Unwrap() error { return e.Err }
