package models

import (
	"errors"
	"fmt"
)

const UniqueViolation = "23505"

var (
	ErrOSAction        = errors.New("OS action failed")
	ErrOperationAction = errors.New("operation action failed")
	ErrNetworkAction   = errors.New("network action failed")

	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrUniqueViolation = errors.New("already exists")

	// raster / codec taxonomy
	ErrInvalidDimensions = errors.New("source and destination dimensions don't match")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrFileNotFound      = errors.New("file not found")
	ErrInvalidFilename   = errors.New("invalid filename")

	ErrDoRetry    = errors.New("it's OK to retry")
	ErrDoNotRetry = errors.New("don't try retrying")
)

// Error keeps the location that failed next to the thing it failed on,
// so logs don't need a stack trace to be useful.
type Error struct {
	Loc     string
	Subject string
	Err     error
}

func NewError(loc, subject string, err error) *Error {
	return &Error{Loc: loc, Subject: subject, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Loc, e.Subject, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
