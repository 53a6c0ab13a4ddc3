// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fujit1113/ValueFromLog/internal/models"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: message,
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// translateError maps domain errors onto API responses. Cache corruption is
// never seen here: the cache recovers it internally.
func translateError(err error) *APIError {
	var schemaErr *models.SchemaError
	var confErr *models.ConfigurationError

	switch {
	case errors.Is(err, models.ErrMissingArgument):
		return NewBadRequestError("missing required fetch parameter", err)
	case errors.Is(err, models.ErrSourceNotFound):
		return NewNotFoundError(err.Error())
	case errors.As(err, &schemaErr):
		return &APIError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "SCHEMA_ERROR",
			Message: schemaErr.Error(),
		}
	case errors.As(err, &confErr):
		return &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "CONFIGURATION_ERROR",
			Message: confErr.Error(),
		}
	default:
		return NewInternalError("fetch failed", err)
	}
}

// ErrorHandler is the echo HTTPErrorHandler for this service.
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	switch e := err.(type) {
	case *APIError:
		apiErr = e
	case *echo.HTTPError:
		apiErr = &APIError{
			Status:  e.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", e.Message),
		}
	default:
		apiErr = translateError(err)
	}

	c.JSON(apiErr.Status, apiErr)
}
