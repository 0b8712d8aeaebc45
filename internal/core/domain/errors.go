package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidImage       = errors.New("invalid image")
	ErrInference          = errors.New("inference failure")
	ErrExternalService    = errors.New("external service failure")
	ErrDateParse          = errors.New("date parse failure")
	ErrInvalidInput       = errors.New("invalid input")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrTemporary          = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
