package apperr

import (
	"errors"
	"net/http"
)

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeConflict   = "CONFLICT"
	CodeForbidden  = "FORBIDDEN"
	CodeExpired    = "TOKEN_EXPIRED"
	CodeInternal   = "INTERNAL_ERROR"
)

// Body is the JSON error envelope returned by the API.
type Body struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// ToHTTP maps err to a status code and response body. Errors of no known
// kind become a generic 500 that does not leak the underlying message.
func ToHTTP(err error) (int, Body) {
	if v, ok := IsValidation(err); ok {
		return http.StatusBadRequest, Body{Error: "invalid input", Code: CodeValidation, Details: v.Fields}
	}

	var fe *FieldError
	if errors.As(err, &fe) {
		status, code := kindStatus(fe.Kind)
		return status, Body{Error: fe.Message, Code: code, Details: map[string][]string{fe.Field: {fe.Message}}}
	}

	status, code := kindStatus(err)
	if status == http.StatusInternalServerError {
		return status, Body{Error: "internal server error", Code: CodeInternal}
	}
	return status, Body{Error: err.Error(), Code: code}
}

func kindStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, CodeForbidden
	case errors.Is(err, ErrExpired):
		return http.StatusGone, CodeExpired
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
