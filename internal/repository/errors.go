package repository

import (
	"errors"
	"fmt"
)

// Domain failures. Each one is recoverable by the caller correcting input.
var (
	ErrDuplicateEmail     = errors.New("an account with this email already exists")
	ErrEmailInUse         = errors.New("email is already in use by another account")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrReviewNotFound     = errors.New("review not found")
	ErrInvalidRating      = errors.New("rating must be between 0 and 5")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
)

// StoreError wraps a persistence failure underneath a repository operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeFailure(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
