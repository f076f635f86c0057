package errors

import "fmt"

// ErrorCode represents a statustracker error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"  // 400
	ErrEntityNotFound ErrorCode = "ENTITY_NOT_FOUND" // 404
	ErrNoData         ErrorCode = "NO_DATA"          // 404
	ErrInternal       ErrorCode = "INTERNAL"         // 500
)

// TrackerError represents a structured error with code, status, and details.
type TrackerError struct {
	Code    ErrorCode      `json:"code"`
	Status  int            `json:"status"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *TrackerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid query parameters.
func NewInvalidRequest(msg string) *TrackerError {
	return &TrackerError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewRangeTooLong creates a 400 error when a query spans more than max minutes.
func NewRangeTooLong(max, actual uint64) *TrackerError {
	return &TrackerError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: fmt.Sprintf("duration is too long: %d minutes (max %d)", actual, max),
		Details: map[string]any{"max_minutes": max, "actual_minutes": actual},
	}
}

// NewEntityNotFound creates a 404 diagnostic for a player the tracker does not know.
// Callers attach it to an empty result rather than returning it.
func NewEntityNotFound(name, reason string) *TrackerError {
	return &TrackerError{
		Code:    ErrEntityNotFound,
		Status:  404,
		Message: fmt.Sprintf("player not found: %s (%s)", name, reason),
		Details: map[string]any{"name": name, "reason": reason},
	}
}

// NewNoData creates a 404 error describing an endpoint that returned nothing.
func NewNoData(endpoint string) *TrackerError {
	return &TrackerError{
		Code:    ErrNoData,
		Status:  404,
		Message: fmt.Sprintf("no data from %s", endpoint),
		Details: map[string]any{"endpoint": endpoint},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *TrackerError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &TrackerError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a TrackerError with the given code.
func Is(err error, code ErrorCode) bool {
	if tErr, ok := err.(*TrackerError); ok {
		return tErr.Code == code
	}
	return false
}
