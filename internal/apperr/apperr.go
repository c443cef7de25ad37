package apperr

import (
	"fmt"
	"net/http"
)

// Code identifies an error category exposed to API clients.
type Code string

const (
	CodeUnauthorized             Code = "UNAUTHORIZED"
	CodeTokenExpired             Code = "TOKEN_EXPIRED"
	CodeInvalidToken             Code = "INVALID_TOKEN"
	CodeAgentSuspended           Code = "AGENT_SUSPENDED"
	CodeForbidden                Code = "FORBIDDEN"
	CodeValidationError          Code = "VALIDATION_ERROR"
	CodeNotFound                 Code = "NOT_FOUND"
	CodeAgentNotFound            Code = "AGENT_NOT_FOUND"
	CodeRateLimited              Code = "RATE_LIMITED"
	CodeBackupServiceUnavailable Code = "BACKUP_SERVICE_UNAVAILABLE"
	CodeInternalError            Code = "INTERNAL_ERROR"
)

// Error is the single error type that crosses the service/handler boundary.
// Handlers render it as {"error": Message, "code": Code} with Status.
type Error struct {
	Status  int
	Code    Code
	Message string

	// RetryAfter, in seconds, is set only for RATE_LIMITED errors and is
	// emitted as a Retry-After header in addition to the JSON body.
	RetryAfter int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(status int, code Code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

func TokenExpired() *Error {
	return New(http.StatusUnauthorized, CodeTokenExpired, "Session token has expired")
}

func InvalidToken(message string) *Error {
	return New(http.StatusUnauthorized, CodeInvalidToken, message)
}

func Suspended(message string) *Error {
	return New(http.StatusForbidden, CodeAgentSuspended, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, CodeForbidden, message)
}

func Validation(message string) *Error {
	return New(http.StatusBadRequest, CodeValidationError, message)
}

func RateLimited(retryAfter int) *Error {
	err := New(http.StatusTooManyRequests, CodeRateLimited,
		fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", retryAfter))
	err.RetryAfter = retryAfter
	return err
}

func BackupUnavailable(message string) *Error {
	return New(http.StatusServiceUnavailable, CodeBackupServiceUnavailable, message)
}

func Internal(message string) *Error {
	return New(http.StatusInternalServerError, CodeInternalError, message)
}
