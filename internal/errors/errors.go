// Package errors defines the error taxonomy of the extraction pipeline.
//
// Every structural or missing-data problem is reported as an *AppError whose
// Type says what went wrong and whose Context says where (plate, data type,
// column). Callers branch on the type with the standard helpers:
//
//	if errors.Is(err, apperrors.ErrKeyNotFound) {
//	    // proceed without enrichment
//	}
package errors

import (
	stderrors "errors"
)

// Is forwards to the standard library so callers need a single import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As forwards to the standard library.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// IsPlateLevel reports whether err is one of the typed data problems that
// skip a single plate. Untyped errors (I/O, cancellation) are not.
func IsPlateLevel(err error) bool {
	t, ok := TypeOf(err)
	if !ok {
		return false
	}
	return t != ErrTypeInvalidConfiguration
}
