package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidImage marks input bytes that cannot be decoded as an image.
	ErrInvalidImage = errors.New("invalid image")
	// ErrInputConflict marks requests supplying both or neither input mode.
	ErrInputConflict = errors.New("input conflict")
	// ErrUpstreamUnavailable marks a single remote source failure. It is
	// absorbed inside the fetch/hash units and never surfaces on its own.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrNoMatch marks a search where no candidate produced a usable signal.
	ErrNoMatch = errors.New("no match")
	// ErrCatalogUnavailable marks an unreachable catalog collaborator.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// HTTPStatus maps a classified error to the response code the API should emit.
// Unclassified errors are treated as internal faults.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidImage),
		errors.Is(err, ErrInputConflict),
		errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoMatch), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrCatalogUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage strips the sentinel prefix from a classified error so API
// responses carry the detail without the internal marker text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, marker := range []error{
		ErrInvalidImage, ErrInputConflict, ErrUpstreamUnavailable,
		ErrNoMatch, ErrCatalogUnavailable,
		ErrValidation, ErrConfiguration, ErrNotFound, ErrTimeout,
	} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
