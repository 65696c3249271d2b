package removebg

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned while the API key is empty or still the
	// placeholder value.
	ErrNotConfigured = errors.New("remove.bg API key not configured")

	// ErrTimeout is returned when the upstream call exceeds the client timeout.
	ErrTimeout = errors.New("remove.bg request timed out")
)

// UpstreamError is a non-200 answer from remove.bg.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Remove.bg API error (Status %d): %s", e.StatusCode, e.Body)
}

// NetworkError wraps a transport failure that is not a timeout: DNS, refused
// connections, resets, TLS handshakes.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("Network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
