package core

import "github.com/pkg/errors"

// FieldError pins an input error to the field that caused it.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a rejected write; Fields carries the per-field
// detail when the failure maps to specific input fields.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown marks an integrity failure the process cannot recover from;
// the HTTP error handler turns it into a graceful shutdown.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
