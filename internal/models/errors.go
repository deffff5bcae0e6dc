package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every layer. Wrap them with fmt.Errorf("...: %w") and
// test with errors.Is.
var (
	ErrMalformedResponse = errors.New("malformed model response")
	ErrMissingField      = errors.New("missing field")
	ErrMissingParameter  = errors.New("missing parameter")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrNotFound          = errors.New("not found")
	ErrExternalService   = errors.New("external service failure")
	ErrValidation        = errors.New("validation error")
)

// FieldError names the field or parameter an error is about. Kind is one of the
// sentinels above and is what errors.Is matches against.
type FieldError struct {
	Field   string
	Message string
	Kind    error
}

func (e *FieldError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return e.Kind }

// NewMissingFieldError reports a required key absent from a model payload.
func NewMissingFieldError(field string) *FieldError {
	return &FieldError{Field: field, Kind: ErrMissingField}
}

// NewMissingParameterError reports a required caller parameter that was not supplied.
func NewMissingParameterError(param string) *FieldError {
	return &FieldError{Field: param, Message: "is required", Kind: ErrMissingParameter}
}

// NewInvalidDateError reports a date parameter that could not be used.
func NewInvalidDateError(param, message string) *FieldError {
	return &FieldError{Field: param, Message: message, Kind: ErrInvalidDate}
}

// NewValidationError reports an invalid request field.
func NewValidationError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message, Kind: ErrValidation}
}
