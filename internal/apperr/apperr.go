// Package apperr defines the error kinds shared by the services and mapped to
// HTTP responses at the handler boundary.
//
// Services wrap one of the sentinel kinds:
//
//	return fmt.Errorf("book %d: %w", id, apperr.ErrNotFound)
//
// and the HTTP layer matches them with errors.Is. Input problems are reported
// as a *ValidationError carrying messages per field.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrForbidden = errors.New("forbidden")
	ErrExpired   = errors.New("expired")
	// ErrTransport marks a failure of an outside collaborator (mail server,
	// metadata API). Callers usually log it and degrade.
	ErrTransport = errors.New("transport failure")
)

// ValidationError collects field-level problems with an input.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Invalid returns a ValidationError with a single message for field.
func Invalid(field, message string) *ValidationError {
	v := NewValidationError()
	v.Add(field, message)
	return v
}

func (v *ValidationError) Add(field, message string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], message)
}

func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.Fields) > 0
}

// OrNil returns v when it holds at least one problem, nil otherwise. It keeps
// a typed-nil *ValidationError from escaping as a non-nil error.
func (v *ValidationError) OrNil() error {
	if !v.HasErrors() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	if !v.HasErrors() {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.Fields))
	for field := range v.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(v.Fields[field], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldError is a single-field failure of a specific kind, such as a
// duplicate value. errors.Is(err, ErrConflict) holds for a conflict on any field.
type FieldError struct {
	Kind    error
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return e.Kind
}

func Conflict(field, message string) error {
	return &FieldError{Kind: ErrConflict, Field: field, Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError and
// returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
