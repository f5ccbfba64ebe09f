package service

import (
	"errors"
	"fmt"
	"time"

	"hrbackend/internal/repository"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	// ErrUnauthorized is returned for bad credentials.
	ErrUnauthorized = errors.New("invalid email or password")
)

// Clock returns the current time. Services take one so tests can pin "today".
type Clock func() time.Time

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// notFoundOr maps a missing row to ErrNotFound and wraps anything else.
func notFoundOr(err error, what string) error {
	if repository.IsNotFound(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
