package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies a domain failure. Transport status is derived from the
// kind through an explicit table, never from message wording.
type Kind string

const (
	KindAuthorization Kind = "AUTHORIZATION"
	KindNotFound      Kind = "NOT_FOUND"
	KindInvalidState  Kind = "INVALID_STATE"
	KindCapacity      Kind = "CAPACITY_EXCEEDED"
	KindEligibility   Kind = "ELIGIBILITY"
	KindExpired       Kind = "EXPIRED"
	KindExternal      Kind = "EXTERNAL_DEPENDENCY"
	KindValidation    Kind = "INVALID_INPUT"
	KindInternal      Kind = "INTERNAL_ERROR"
)

var kindStatus = map[Kind]int{
	KindAuthorization: http.StatusForbidden,
	KindNotFound:      http.StatusNotFound,
	KindInvalidState:  http.StatusConflict,
	KindCapacity:      http.StatusConflict,
	KindEligibility:   http.StatusUnprocessableEntity,
	KindExpired:       http.StatusGone,
	KindExternal:      http.StatusBadGateway,
	KindValidation:    http.StatusBadRequest,
	KindInternal:      http.StatusInternalServerError,
}

// DomainError is a typed failure returned by the service layer. Every
// rejected mutation carries the specific invariant that blocked it.
type DomainError struct {
	Kind    Kind
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func newDomainError(kind Kind, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

// Constructors per kind.

func Authorization(message string) *DomainError { return newDomainError(KindAuthorization, message) }
func NotFound(message string) *DomainError      { return newDomainError(KindNotFound, message) }
func InvalidState(message string) *DomainError  { return newDomainError(KindInvalidState, message) }
func Capacity(message string) *DomainError      { return newDomainError(KindCapacity, message) }
func Eligibility(message string) *DomainError   { return newDomainError(KindEligibility, message) }
func Expired(message string) *DomainError       { return newDomainError(KindExpired, message) }
func External(message string) *DomainError      { return newDomainError(KindExternal, message) }
func Validation(message string) *DomainError    { return newDomainError(KindValidation, message) }

// KindOf extracts the kind of an error, defaulting to INTERNAL for anything
// that is not a DomainError.
func KindOf(err error) Kind {
	var domainErr *DomainError
	if stderrors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to a transport status code via the kind table.
func HTTPStatus(err error) int {
	if status, ok := kindStatus[KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// APIError represents a standardized API error response
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// Respond maps a service-layer error to its transport representation.
// Unexpected errors are masked as a generic internal error.
func Respond(c *gin.Context, err error) {
	kind := KindOf(err)
	message := err.Error()
	if kind == KindInternal {
		message = "Internal server error"
	}
	c.JSON(HTTPStatus(err), NewAPIError(string(kind), message))
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// Helper functions for common error responses

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, NewAPIError("UNAUTHORIZED", message))
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	RespondWithError(c, http.StatusForbidden, NewAPIError(string(KindAuthorization), message))
}

// NotFoundResponse sends a 404 response
func NotFoundResponse(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, NewAPIError(string(KindNotFound), message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, NewAPIError(string(KindValidation), message))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, NewAPIError(string(KindInternal), message))
}
