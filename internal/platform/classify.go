package platform

import (
	"context"
	"errors"
	"net/http"

	"audiodesc/internal/services"
)

// ErrorMarker maps an engine error to the services sentinel used for status
// classification.
func ErrorMarker(err error) error {
	var apiErr *APIError
	var taskErr *TaskError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrMalformedArtifact):
		return services.ErrMalformedArtifact
	case errors.Is(err, ErrWaitTimeout), errors.Is(err, context.DeadlineExceeded):
		return services.ErrTimeout
	case errors.As(err, &taskErr):
		return services.ErrExternalTool
	case errors.As(err, &apiErr):
		switch {
		case apiErr.NotFound():
			return services.ErrNotFound
		case apiErr.StatusCode == http.StatusUnauthorized, apiErr.StatusCode == http.StatusForbidden:
			return services.ErrConfiguration
		case apiErr.StatusCode == http.StatusBadRequest, apiErr.StatusCode == http.StatusUnprocessableEntity:
			return services.ErrValidation
		default:
			return services.ErrExternalTool
		}
	default:
		return services.ErrExternalTool
	}
}
