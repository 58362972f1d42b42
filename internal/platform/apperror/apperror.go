// Package apperror is the error taxonomy shared by services and the HTTP
// error handler. Services return *Error for anything a caller should see;
// everything else is reported as an internal error.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound         = "RESOURCE_NOT_FOUND"
	CodeForbidden        = "FORBIDDEN"
	CodeValidation       = "VALIDATION_ERROR"
	CodeMissingFields    = "MISSING_FIELDS"
	CodeConflict         = "CONFLICT"
	CodeEmailTaken       = "EMAIL_ALREADY_EXISTS"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInvalidCreds     = "INVALID_CREDENTIALS"
	CodeNoToken          = "NO_TOKEN_PROVIDED"
	CodeBadTokenFormat   = "INVALID_TOKEN_FORMAT"
	CodeInvalidToken     = "INVALID_TOKEN"
	CodeNoFile           = "NO_FILE_UPLOADED"
	CodeMissingDocType   = "MISSING_DOCUMENT_TYPE"
	CodeUploadFailed     = "UPLOAD_FAILED"
	CodeExtraction       = "EXTRACTION_FAILED"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	CodeRouteNotFound    = "ROUTE_NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeBadRequest       = "BAD_REQUEST"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
)

// Error is an application error with a stable code, a message safe to show
// to clients and the HTTP status it maps to.
type Error struct {
	Code    string
	Message string
	Status  int
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithCause returns a copy of e carrying cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}

func New(status int, code, message string) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, CodeNotFound, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, CodeForbidden, message)
}

func Validation(code, message string) *Error {
	if code == "" {
		code = CodeValidation
	}
	return New(http.StatusBadRequest, code, message)
}

func Conflict(code, message string) *Error {
	if code == "" {
		code = CodeConflict
	}
	return New(http.StatusConflict, code, message)
}

func Unauthorized(code, message string) *Error {
	if code == "" {
		code = CodeUnauthorized
	}
	return New(http.StatusUnauthorized, code, message)
}

// Upstream reports a failed call to an external dependency. message is shown
// to the client as is.
func Upstream(message string, cause error) *Error {
	return &Error{Code: CodeExtraction, Message: message, Status: http.StatusBadGateway, Cause: cause}
}

func Internal(code string, cause error) *Error {
	if code == "" {
		code = CodeInternal
	}
	return &Error{Code: code, Message: "An unexpected error occurred", Status: http.StatusInternalServerError, Cause: cause}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err carries an *Error with the given code.
func IsCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}
