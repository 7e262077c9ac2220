package excel

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	// KindConfiguration covers missing files, unknown sheets and row numbers
	// pointing at the header row.
	KindConfiguration ErrorKind = "configuration"
	// KindValidation covers unparsable payloads and filters on unknown columns.
	KindValidation ErrorKind = "validation"
)

// OperationError aborts the current item of a method call.
type OperationError struct {
	Kind    ErrorKind
	Message string
	// Fields lists the offending input fields, Available the fields the
	// worksheet actually has.
	Fields    []string
	Available []string
	Err       error
}

func (e *OperationError) Error() string {
	return e.Message
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func configError(format string, args ...interface{}) *OperationError {
	return &OperationError{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...interface{}) *OperationError {
	return &OperationError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func IsConfiguration(err error) bool {
	var opErr *OperationError
	return errors.As(err, &opErr) && opErr.Kind == KindConfiguration
}

func IsValidation(err error) bool {
	var opErr *OperationError
	return errors.As(err, &opErr) && opErr.Kind == KindValidation
}
