package constants

import (
	"errors"
	"net/http"
)

// CodedError carries the HTTP status and the machine readable code reported to clients.
type CodedError struct {
	status     int
	code       string
	message    string
	suggestion string
}

func NewCodedError(status int, code, message string) *CodedError {
	return &CodedError{status: status, code: code, message: message}
}

func (e *CodedError) Error() string {
	return e.message
}

// Code returns the HTTP status.
func (e *CodedError) Code() int {
	return e.status
}

func (e *CodedError) ErrorCode() string {
	return e.code
}

func (e *CodedError) Message() string {
	return e.message
}

func (e *CodedError) Suggestion() string {
	return e.suggestion
}

// WithSuggestion returns a copy of e carrying a hint for the caller.
func (e *CodedError) WithSuggestion(suggestion string) *CodedError {
	cp := *e
	cp.suggestion = suggestion
	return &cp
}

// WithMessage returns a copy of e with a more specific message.
func (e *CodedError) WithMessage(message string) *CodedError {
	cp := *e
	cp.message = message
	return &cp
}

// Is matches coded errors by code, so copies made by WithMessage still compare equal.
func (e *CodedError) Is(target error) bool {
	var t *CodedError
	if !errors.As(target, &t) {
		return false
	}
	return t.code == e.code
}

const (
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternal         = "INTERNAL_ERROR"
	CodeQuery            = "QUERY_ERROR"
	CodeNoResults        = "NO_RESULTS"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidCanton    = "INVALID_CANTON"
	CodeInvalidAgeBand   = "INVALID_AGE_BAND"
	CodeInvalidFranchise = "INVALID_FRANCHISE"
	CodeInvalidModelType = "INVALID_MODEL_TYPE"
	CodeInvalidProfile   = "INVALID_PROFILE"
	CodeInvalidYear      = "INVALID_YEAR"
	CodeInvalidInsurer   = "INVALID_INSURER"
	CodeInvalidOptions   = "INVALID_OPTIONS"
	CodeInvalidPLZ       = "INVALID_PLZ"
	CodePLZNotFound      = "PLZ_NOT_FOUND"
	CodeInvalidEmail     = "INVALID_EMAIL"
)

var ErrDBNotFound = errors.New("not found in db")

var (
	ErrUnauthorized = NewCodedError(http.StatusUnauthorized, CodeUnauthorized, "Invalid or missing API key").
			WithSuggestion("Send the API key in the X-API-Key header")

	ErrForbidden = NewCodedError(http.StatusForbidden, CodeForbidden, "Admin token required")

	ErrInternal = NewCodedError(http.StatusInternalServerError, CodeInternal, "Internal server error")

	ErrQuery = NewCodedError(http.StatusInternalServerError, CodeQuery, "Database query failed")

	ErrNoResults = NewCodedError(http.StatusNotFound, CodeNoResults, "No premiums found for these criteria").
			WithSuggestion("Try adjusting your search parameters")

	ErrInvalidRequest = NewCodedError(http.StatusBadRequest, CodeInvalidRequest, "Invalid request")

	ErrInvalidPLZ = NewCodedError(http.StatusBadRequest, CodeInvalidPLZ, "PLZ must be a 4-digit number").
			WithSuggestion("Example: ?plz=8001")

	ErrPLZNotFound = NewCodedError(http.StatusNotFound, CodePLZNotFound, "PLZ not found").
			WithSuggestion("Please check the PLZ or try a nearby postal code")

	ErrInvalidOptions = NewCodedError(http.StatusBadRequest, CodeInvalidOptions, "Provide at least 2 options to compare")

	ErrInvalidInsurer = NewCodedError(http.StatusBadRequest, CodeInvalidInsurer, "Missing insurer_id").
				WithSuggestion("Pass an insurer id such as 1318 or a name such as Assura")

	ErrInvalidEmail = NewCodedError(http.StatusBadRequest, CodeInvalidEmail, "Invalid email format")

	ErrRateLimited = NewCodedError(http.StatusTooManyRequests, CodeRateLimited, "Too many requests").
			WithSuggestion("Retry after a short pause")

	ErrNotFound = NewCodedError(http.StatusNotFound, CodeNotFound, "Route not found")

	ErrMethodNotAllowed = NewCodedError(http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed")
)
