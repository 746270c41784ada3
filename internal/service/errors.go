package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrValidation marks input that was rejected before anything was written.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound covers records that are absent or owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrStaleOccurrence is a completion against an occurrence that is not the task's current
	// one, or that another completion advanced first. It matches ErrNotFound as well.
	ErrStaleOccurrence = fmt.Errorf("%w: occurrence is not current", ErrNotFound)
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// notFound converts gorm's missing-record error into ErrNotFound and leaves other errors alone.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
