package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. Handlers and clients use these instead of hardcoded strings.
const (
	// Validation (400)
	ErrCodeValidationEmptyQuery   ErrorCode = "validation_empty_query"
	ErrCodeValidationInvalidMode  ErrorCode = "validation_invalid_mode"
	ErrCodeValidationInvalidCode  ErrorCode = "validation_invalid_weather_code"
	ErrCodeValidationMissingField ErrorCode = "validation_missing_required_field"
	ErrCodeValidationInvalidField ErrorCode = "validation_invalid_field"

	// Not Found (404)
	ErrCodeNotFoundCity  ErrorCode = "not_found_city"
	ErrCodeNotFoundRoute ErrorCode = "not_found_route"

	// Upstream (502)
	ErrCodeUpstreamGeocode     ErrorCode = "upstream_geocode_unavailable"
	ErrCodeUpstreamForecast    ErrorCode = "upstream_forecast_unavailable"
	ErrCodeUpstreamSummary     ErrorCode = "upstream_summary_unavailable"
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited ErrorCode = "upstream_rate_limited"
	ErrCodeUpstreamRejected    ErrorCode = "upstream_rejected"

	// Internal (500)
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
	ErrCodeInternalTimeout    ErrorCode = "internal_request_timeout"
)

// User-facing messages shown when a search fails.
const (
	MsgEmptyQuery         = "Please enter a city name."
	MsgCityNotFound       = "City not found. Please check the spelling."
	MsgForecastFailed     = "Failed to fetch weather data. Try again later."
	MsgSummaryUnavailable = "AI summary is unavailable right now."
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Returns 500 for unrecognized error codes.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest // 400
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound // 404
	case s == string(ErrCodeInternalTimeout):
		return http.StatusGatewayTimeout // 504
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}

// AppError is the standard application error type.
// Every error that crosses a package boundary toward the API or the terminal
// client is expressed as an AppError so it can be rendered consistently.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error with the provided details merged in.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// HasCode reports whether err is, or wraps, an AppError carrying code.
// Only the outermost AppError in the chain is inspected.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

// CodeOf returns the code of the outermost AppError in err's chain, or
// ErrCodeInternalUnexpected when err carries none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalUnexpected
}
