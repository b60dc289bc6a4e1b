package validation

import (
	"errors"
	"strings"
)

// FieldError is one rejected form field. Issue is a translation key.
type FieldError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// Error collects every field problem found while validating a request
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Issue)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records an issue for field
func (e *Error) Add(field, issue string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Issue: issue})
}

// Has reports whether field has at least one issue
func (e *Error) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns nil when no issue was recorded
func (e *Error) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// New builds an error with a single field issue
func New(field, issue string) *Error {
	return &Error{Fields: []FieldError{{Field: field, Issue: issue}}}
}

// As extracts a validation error from err
func As(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
