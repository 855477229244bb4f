package errs

import (
	"github.com/pkg/errors"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrInternal   = errors.New("internal error")
)

func NotFound(format string, args ...any) error {
	return errors.Wrapf(ErrNotFound, format, args...)
}

func Validation(format string, args ...any) error {
	return errors.Wrapf(ErrValidation, format, args...)
}

func Internal(format string, args ...any) error {
	return errors.Wrapf(ErrInternal, format, args...)
}
