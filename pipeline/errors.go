package pipeline

import (
	"errors"
	"fmt"
)

// ValidationError marks request-level problems: a bad threshold, an
// unreadable archive, or an archive with nothing to process. These abort
// the whole request before or instead of per-entry processing and map to a
// client error at the HTTP boundary.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a request-validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
