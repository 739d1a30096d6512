package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/aqi-predictor/internal/domain/airquality"
	apperrors "github.com/yanqian/aqi-predictor/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status    int
	Code      string
	Message   string
	Fields    airquality.ValidationErrors
	Err       error
	Permanent bool // not replayed by the retry wrapper
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	httpErr := &HTTPError{Status: status, Code: code, Message: message, Err: err}
	var fieldErrs *airquality.FieldErrors
	if errors.As(err, &fieldErrs) {
		httpErr.Fields = fieldErrs.Fields
	}
	return httpErr
}

// fromDomainError maps AppError codes onto statuses.
func fromDomainError(err error) *HTTPError {
	switch {
	case apperrors.IsCode(err, "invalid_input"):
		return NewHTTPError(http.StatusBadRequest, "invalid_request", apperrors.MessageOf(err), err)
	case apperrors.IsCode(err, "not_found"):
		return NewHTTPError(http.StatusNotFound, "not_found", apperrors.MessageOf(err), err)
	case apperrors.IsCode(err, "conflict"):
		return NewHTTPError(http.StatusConflict, "conflict", apperrors.MessageOf(err), err)
	case apperrors.IsCode(err, "capacity"):
		return NewHTTPError(http.StatusServiceUnavailable, "capacity", apperrors.MessageOf(err), err)
	case apperrors.IsCode(err, "model_error"):
		httpErr := NewHTTPError(http.StatusInternalServerError, "model_error", apperrors.MessageOf(err), err)
		httpErr.Permanent = errors.Is(err, airquality.ErrModelReported)
		return httpErr
	case apperrors.IsCode(err, "history_error"):
		return NewHTTPError(http.StatusInternalServerError, "history_error", apperrors.MessageOf(err), err)
	default:
		return asHTTPError(err)
	}
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
