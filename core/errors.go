package core

import (
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific request field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError rejects a request before it reaches a service.
// It has no Cause method: errors.Cause stops at it, so transports can switch on *ValidationError.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	var b strings.Builder
	if err.Err != nil {
		b.WriteString(err.Err.Error())
	}
	for _, fe := range err.Fields {
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		b.WriteString(fe.Field + ": " + fe.Error)
	}
	return b.String()
}

// Unwrap gives errors.Is and errors.As access to the underlying error.
func (err ValidationError) Unwrap() error { return err.Err }

// FieldMap returns the field errors by field name, or nil if there are none.
// The last error reported for a field wins.
func (err ValidationError) FieldMap() map[string]string {
	if len(err.Fields) == 0 {
		return nil
	}
	m := make(map[string]string, len(err.Fields))
	for _, fe := range err.Fields {
		m[fe.Field] = fe.Error
	}
	return m
}

// shutdown reports that the process can no longer serve requests (e.g. its database is closed).
type shutdown struct {
	message string
	err     error
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

// ShutdownFrom turns err into a shutdown error, keeping err reachable with errors.Is and errors.As.
func ShutdownFrom(err error) error {
	if err == nil {
		return nil
	}
	return &shutdown{message: err.Error(), err: err}
}

func (s shutdown) Error() string {
	return s.message
}

func (s shutdown) Unwrap() error { return s.err }

func IsShutdown(err error) bool {
	var s *shutdown
	return errors.As(err, &s)
}
