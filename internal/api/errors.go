package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/randomchars42/Sortingshop/internal/errors"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		var details []string
		for _, err := range errs {
			if err == nil {
				continue
			}
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return fromDomainError(domainErr)
			}
			details = append(details, err.Error())
		}

		apiErr := &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
		if len(details) > 0 {
			apiErr.Details = details
		}
		return apiErr
	}
}

// toAPIError converts an error returned by the service layer.
func toAPIError(err error) error {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return fromDomainError(domainErr)
	}
	return &APIError{
		status:  http.StatusInternalServerError,
		Code:    string(domainerrors.CodeInternal),
		Message: err.Error(),
	}
}

func fromDomainError(err *domainerrors.Error) *APIError {
	return &APIError{
		status:  err.HTTPStatus(),
		Code:    string(err.Code),
		Message: err.Error(),
		Details: err.Details,
	}
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	default:
		return string(domainerrors.CodeInternal)
	}
}
