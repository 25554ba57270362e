package apperrors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateIdentity = errors.New("a chemical with this identity already exists")
	ErrValidation        = errors.New("validation failed")
	ErrUnsafeInput       = errors.New("input contains a disallowed payload")
	ErrImmutableEntry    = errors.New("log entries cannot be modified after creation")
)
