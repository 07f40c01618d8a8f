package common

import (
	"errors"
	"net/http"
)

// Common error types
var (
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternalServer = errors.New("internal server error")

	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidTransition      = errors.New("invalid transition")
	ErrRideTerminal           = errors.New("ride is terminal")
	ErrAlreadyAssigned        = errors.New("ride already assigned")
	ErrCancellationNotAllowed = errors.New("cancellation not allowed")
	ErrAlreadyRated           = errors.New("ride already rated")
	ErrInvalidRating          = errors.New("invalid rating")
	ErrUnavailable            = errors.New("service unavailable")
)

// Stable error codes returned to clients in ErrorInfo.ErrorCode
const (
	CodeInvalidInput           = "INVALID_INPUT"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeRideTerminal           = "RIDE_TERMINAL"
	CodeAlreadyAssigned        = "ALREADY_ASSIGNED"
	CodeCancellationNotAllowed = "CANCELLATION_NOT_ALLOWED"
	CodeAlreadyRated           = "ALREADY_RATED"
	CodeInvalidRating          = "INVALID_RATING"
	CodeUnavailable            = "UNAVAILABLE"
	CodeNotFound               = "NOT_FOUND"
	CodeForbidden              = "FORBIDDEN"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeInternal               = "INTERNAL"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code      int    `json:"code"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Err       error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

// Unwrap exposes the sentinel so callers can use errors.Is.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(code int, errorCode, message string, err error) *AppError {
	return &AppError{
		Code:      code,
		ErrorCode: errorCode,
		Message:   message,
		Err:       err,
	}
}

// AsAppError returns the AppError in err's chain, if any.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the stable error code for err, or CodeInternal.
func CodeOf(err error) string {
	if appErr, ok := AsAppError(err); ok && appErr.ErrorCode != "" {
		return appErr.ErrorCode
	}
	return CodeInternal
}

func NewInvalidInputError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidInput, message, ErrInvalidInput)
}

func NewInvalidTransitionError(message string) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, CodeInvalidTransition, message, ErrInvalidTransition)
}

func NewRideTerminalError(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeRideTerminal, message, ErrRideTerminal)
}

func NewAlreadyAssignedError(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeAlreadyAssigned, message, ErrAlreadyAssigned)
}

func NewCancellationNotAllowedError(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeCancellationNotAllowed, message, ErrCancellationNotAllowed)
}

func NewAlreadyRatedError(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeAlreadyRated, message, ErrAlreadyRated)
}

func NewInvalidRatingError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidRating, message, ErrInvalidRating)
}

// NewUnavailableError wraps a collaborator failure. The caller may retry.
func NewUnavailableError(message string, err error) *AppError {
	if err == nil {
		err = ErrUnavailable
	} else {
		err = errors.Join(ErrUnavailable, err)
	}
	return NewAppError(http.StatusServiceUnavailable, CodeUnavailable, message, err)
}

func NewNotFoundError(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func NewForbiddenError(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

func NewUnauthorizedError(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func NewInternalError(message string, err error) *AppError {
	if err == nil {
		err = ErrInternalServer
	}
	return NewAppError(http.StatusInternalServerError, CodeInternal, message, err)
}
