// File: internal/common/errors.go
package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable error codes shared by the error classification layer.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeUploadError     = "UPLOAD_ERROR"
	CodeJSONParseError  = "JSON_PARSE_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
)

// HTTPCode returns the machine-readable code for a domain error with the
// given status, e.g. HTTP_404.
func HTTPCode(statusCode int) string {
	return fmt.Sprintf("HTTP_%d", statusCode)
}

// APIError is a domain/business error that carries its own HTTP status, a
// safe-to-display message and an optional internal-only diagnostic payload.
// The payload and the wrapped cause are logged but never sent to clients.
type APIError struct {
	StatusCode      int
	Message         string
	InternalPayload map[string]any
	cause           error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("APIError: StatusCode=%d, Message=%s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// Is lets errors.Is match sentinel errors against copies produced by
// WithPayload/WithCause.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.StatusCode == e.StatusCode && t.Message == e.Message
}

// Code returns the HTTP_<status> classification code for the error.
func (e *APIError) Code() string {
	return HTTPCode(e.StatusCode)
}

func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{StatusCode: statusCode, Message: message}
}

// WithPayload attaches internal diagnostic data to a copy of the error.
func (e *APIError) WithPayload(payload map[string]any) *APIError {
	clone := *e
	clone.InternalPayload = payload
	return &clone
}

// WithCause attaches the original error to a copy of the error. The cause is
// retained for logs only.
func (e *APIError) WithCause(cause error) *APIError {
	clone := *e
	clone.cause = cause
	return &clone
}

var (
	ErrUnauthorized       = NewAPIError(http.StatusUnauthorized, "Authentication is required and has failed or has not yet been provided.")
	ErrForbidden          = NewAPIError(http.StatusForbidden, "You do not have permission to access this resource.")
	ErrNotFound           = NewAPIError(http.StatusNotFound, "The requested resource could not be found.")
	ErrConflict           = NewAPIError(http.StatusConflict, "A conflict occurred with the current state of the resource.")
	ErrInternalServer     = NewAPIError(http.StatusInternalServerError, "An unexpected error occurred on the server.")
	ErrServiceUnavailable = NewAPIError(http.StatusServiceUnavailable, "The server is currently unable to handle the request.")
)

// NewAccountLinkingError is returned when an inbound identity matches an
// existing account by email but the provider has not verified that email.
func NewAccountLinkingError() *APIError {
	return NewAPIError(http.StatusForbidden, "Account linking requires a verified email.").
		WithPayload(map[string]any{"reason": "account linking requires verified email"})
}

// IsAPIError unwraps err to an *APIError if one is in its chain.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Upload error kinds.
type UploadErrorKind int

const (
	UploadSizeLimit UploadErrorKind = iota
	UploadFileCount
	UploadUnexpectedField
)

// UploadError is produced when a multipart upload violates size, count or
// field-name limits. Size violations escalate to 413; the rest map to 400.
type UploadError struct {
	Kind    UploadErrorKind
	Message string
	cause   error
}

func (e *UploadError) Error() string {
	return e.Message
}

func (e *UploadError) Unwrap() error {
	return e.cause
}

// StatusCode returns the HTTP status for the upload violation.
func (e *UploadError) StatusCode() int {
	if e.Kind == UploadSizeLimit {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func NewUploadError(kind UploadErrorKind, message string, cause error) *UploadError {
	return &UploadError{Kind: kind, Message: message, cause: cause}
}
