package errors

import (
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNotFound               ErrorType = "NOT_FOUND"
	ErrTypeEmptySection           ErrorType = "EMPTY_SECTION"
	ErrTypeMalformedSection       ErrorType = "MALFORMED_SECTION"
	ErrTypeMissingColumn          ErrorType = "MISSING_COLUMN"
	ErrTypeMissingReferenceColumn ErrorType = "MISSING_REFERENCE_COLUMN"
	ErrTypeInvalidConfiguration   ErrorType = "INVALID_CONFIGURATION"
	ErrTypeKeyNotFound            ErrorType = "KEY_NOT_FOUND"
	ErrTypeDuplicateWell          ErrorType = "DUPLICATE_WELL"
	ErrTypeStorage                ErrorType = "STORAGE"
)

// Sentinels for errors.Is. An AppError matches the sentinel of its type.
var (
	ErrNotFound               = &AppError{Type: ErrTypeNotFound, Message: "not found"}
	ErrEmptySection           = &AppError{Type: ErrTypeEmptySection, Message: "section is empty"}
	ErrMalformedSection       = &AppError{Type: ErrTypeMalformedSection, Message: "section is malformed"}
	ErrMissingColumn          = &AppError{Type: ErrTypeMissingColumn, Message: "column is missing"}
	ErrMissingReferenceColumn = &AppError{Type: ErrTypeMissingReferenceColumn, Message: "reference column is missing"}
	ErrInvalidConfiguration   = &AppError{Type: ErrTypeInvalidConfiguration, Message: "invalid configuration"}
	ErrKeyNotFound            = &AppError{Type: ErrTypeKeyNotFound, Message: "key not found"}
	ErrDuplicateWell          = &AppError{Type: ErrTypeDuplicateWell, Message: "duplicate well in key table"}
	ErrStorage                = &AppError{Type: ErrTypeStorage, Message: "storage failure"}
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError of the same type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewEmptySectionError reports a section marker with no body.
func NewEmptySectionError(section string) *AppError {
	return NewAppError(ErrTypeEmptySection, fmt.Sprintf("no data found under section %q", section), nil).
		WithContext("data_type", section)
}

// NewMalformedSectionError reports a section body that could not be parsed.
func NewMalformedSectionError(section string, cause error) *AppError {
	return NewAppError(ErrTypeMalformedSection, fmt.Sprintf("failed to parse section %q", section), cause).
		WithContext("data_type", section)
}

// NewMissingColumnError reports a required column that is absent.
func NewMissingColumnError(column string) *AppError {
	return NewAppError(ErrTypeMissingColumn, fmt.Sprintf("column %q not found", column), nil).
		WithContext("column", column)
}

// NewMissingReferenceColumnError reports an absent background reference.
func NewMissingReferenceColumnError(column string) *AppError {
	return NewAppError(ErrTypeMissingReferenceColumn, fmt.Sprintf("reference column %q not among analytes", column), nil).
		WithContext("column", column)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeInvalidConfiguration, message, cause)
}

// NewKeyNotFoundError reports a plate without a key table.
func NewKeyNotFoundError(plate, path string) *AppError {
	return NewAppError(ErrTypeKeyNotFound, fmt.Sprintf("no key table for plate %s", plate), nil).
		WithContext("plate", plate).
		WithContext("path", path)
}

// NewDuplicateWellError reports wells that occur more than once in a key.
func NewDuplicateWellError(plate string, wells []string) *AppError {
	return NewAppError(ErrTypeDuplicateWell, fmt.Sprintf("key table for plate %s repeats wells %v", plate, wells), nil).
		WithContext("plate", plate).
		WithContext("wells", wells)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// TypeOf returns the ErrorType of the first AppError in err's chain.
func TypeOf(err error) (ErrorType, bool) {
	var ae *AppError
	if As(err, &ae) {
		return ae.Type, true
	}
	return "", false
}
