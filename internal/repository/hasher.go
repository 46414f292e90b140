package repository

import (
	"errors"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns a raw password into its stored form and checks a
// candidate against it. Without one, passwords are stored verbatim.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(stored, password string) (bool, error)
}

// BcryptHasher stores bcrypt digests.
type BcryptHasher struct {
	Cost int
}

// Hash returns the bcrypt digest of password.
func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Compare reports whether password matches the stored digest. A mismatch is
// not an error, and neither is a stored value that is not a bcrypt digest.
func (h BcryptHasher) Compare(stored, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password))
	if err == nil {
		return true, nil
	}

	var (
		prefixErr  bcrypt.InvalidHashPrefixError
		costErr    bcrypt.InvalidCostError
		versionErr bcrypt.HashVersionTooNewError
		numErr     *strconv.NumError
	)
	switch {
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword),
		errors.Is(err, bcrypt.ErrHashTooShort),
		errors.Is(err, bcrypt.ErrPasswordTooLong),
		errors.As(err, &prefixErr),
		errors.As(err, &costErr),
		errors.As(err, &versionErr),
		errors.As(err, &numErr):
		return false, nil
	default:
		return false, err
	}
}
