package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/angeloszaimis/bg-remover/internal/removebg"
)

// ErrMissingImage is returned when the request has no "image" file field.
var ErrMissingImage = errors.New("no image uploaded")

// Outcomes, as reported to metrics.
const (
	OutcomeSuccess       = "success"
	OutcomeConfiguration = "configuration"
	OutcomeMissingInput  = "missing_input"
	OutcomeUpstream      = "upstream"
	OutcomeTimeout       = "timeout"
	OutcomeNetwork       = "network"
	OutcomeUnexpected    = "unexpected"
)

const (
	msgNotConfigured = "API key not configured. Get a free key at https://www.remove.bg/api, " +
		"set REMOVEBG_API_KEY (environment, .env file or removebg.api_key in config.yaml) and restart the server."
	msgMissingImage = "No image uploaded"
	msgTimeout      = "Request timed out. Please try again with a smaller image."
)

// classify maps a proxy error to its HTTP status, metrics outcome and the
// message returned to the client.
func classify(err error) (status int, outcome string, message string) {
	var (
		upstreamErr *removebg.UpstreamError
		networkErr  *removebg.NetworkError
	)

	switch {
	case errors.Is(err, removebg.ErrNotConfigured):
		return http.StatusBadRequest, OutcomeConfiguration, msgNotConfigured
	case errors.Is(err, ErrMissingImage):
		return http.StatusBadRequest, OutcomeMissingInput, msgMissingImage
	case errors.As(err, &upstreamErr):
		return http.StatusInternalServerError, OutcomeUpstream, upstreamErr.Error()
	case errors.Is(err, removebg.ErrTimeout):
		return http.StatusInternalServerError, OutcomeTimeout, msgTimeout
	case errors.As(err, &networkErr):
		return http.StatusInternalServerError, OutcomeNetwork, networkErr.Error()
	default:
		return http.StatusInternalServerError, OutcomeUnexpected, fmt.Sprintf("Unexpected error: %v", err)
	}
}
