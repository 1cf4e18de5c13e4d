package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("Not found.")
	ErrNoFileAttached     = errors.New("no resource file attached")
	ErrInvalidCredentials = errors.New("Unable to log in with provided credentials.")
)

// Field error codes surfaced to API clients.
const (
	CodeRequired         = "required"
	CodeBlank            = "blank"
	CodeInvalid          = "invalid"
	CodeUnique           = "unique"
	CodeMaxLength        = "max_length"
	CodeMinLength        = "min_length"
	CodeMinValue         = "min_value"
	CodeMaxDecimalPlaces = "max_decimal_places"
	CodeMaxWholeDigits   = "max_whole_digits"
	CodeDoesNotExist     = "does_not_exist"
	CodeAuthorization    = "authorization"
)

// NonFieldErrors is the key used for errors not tied to a single field.
const NonFieldErrors = "non_field_errors"

type FieldError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationErrors maps a request field to the problems found with it.
type ValidationErrors map[string][]FieldError

func (v ValidationErrors) Add(field, code, message string) {
	v[field] = append(v[field], FieldError{Message: message, Code: code})
}

func (v ValidationErrors) Has(field string) bool {
	return len(v[field]) > 0
}

// OrNil returns nil when nothing was recorded so callers can return it directly.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		for _, fe := range v[field] {
			parts = append(parts, fmt.Sprintf("%s: %s", field, fe.Message))
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationErrors unwraps err into ValidationErrors when it is one.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}
