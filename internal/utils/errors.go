package utils

import (
	"errors"
	"net/http"
)

type AppError struct {
	Code    string
	Message string
	Origin  error // Original error that caused this error, if any
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

func (appErr *AppError) Unwrap() error {
	return appErr.Origin
}

// Standard error codes for the application
const (
	// Resource errors
	ErrNotFound        = "NOT_FOUND"
	ErrDuplicate       = "DUPLICATE"
	ErrInvalidInput    = "INVALID_INPUT"
	ErrVideoNotFound   = "VIDEO_NOT_FOUND"
	ErrChannelNotFound = "CHANNEL_NOT_FOUND"

	// Authentication/Authorization errors
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrForbidden       = "FORBIDDEN" // User is authenticated but doesn't own the resource
	ErrInvalidToken    = "INVALID_TOKEN"

	// User-specific errors
	ErrUserNotFound       = "USER_NOT_FOUND"
	ErrInvalidCredentials = "INVALID_CREDENTIALS"

	// Channel-specific errors
	ErrHandleTaken   = "HANDLE_TAKEN"
	ErrChannelExists = "CHANNEL_EXISTS"

	// Rate limiting
	ErrTooManyRequests = "TOO_MANY_REQUESTS"

	ErrInternal       = "INTERNAL_ERROR"
	ErrDatabase       = "DATABASE_ERROR"
	ErrStorage        = "STORAGE_ERROR"
	ErrPartialFailure = "PARTIAL_FAILURE"
)

// Error creation helper functions
func NewAppError(code string, message string, originalErr error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Origin:  originalErr,
	}
}

func NewUnauthenticatedError(reason string) *AppError {
	return &AppError{
		Code:    ErrUnauthenticated,
		Message: "Unauthorized: " + reason,
	}
}

func NewForbiddenError() *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: "Forbidden",
	}
}

func NewInvalidInputError(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidInput,
		Message: message,
	}
}

func NewDatabaseError(message string, originalErr error) *AppError {
	return &AppError{
		Code:    ErrDatabase,
		Message: message,
		Origin:  originalErr,
	}
}

// AsAppError unwraps err into an *AppError when one is present in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Helper method to check if an error is of a specific type
func IsErrorCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// Helper method to check if an error is related to authentication
func IsAuthError(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == ErrUnauthenticated ||
			appErr.Code == ErrForbidden ||
			appErr.Code == ErrInvalidToken
	}
	return false
}

// AppErrorToHTTPStatus converts an AppError code to an HTTP status code.
func AppErrorToHTTPStatus(errorCode string) int {
	switch errorCode {
	case ErrNotFound, ErrUserNotFound, ErrVideoNotFound, ErrChannelNotFound:
		return http.StatusNotFound
	case ErrInvalidInput:
		return http.StatusBadRequest
	case ErrUnauthenticated, ErrInvalidToken, ErrInvalidCredentials:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrDuplicate, ErrHandleTaken, ErrChannelExists:
		return http.StatusConflict
	case ErrTooManyRequests:
		return http.StatusTooManyRequests
	case ErrInternal, ErrDatabase, ErrStorage, ErrPartialFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to return to callers. Internal failures
// are collapsed to a generic message so store details never leak.
func PublicMessage(appErr *AppError) string {
	if AppErrorToHTTPStatus(appErr.Code) >= http.StatusInternalServerError {
		return "Internal server error"
	}
	return appErr.Message
}
