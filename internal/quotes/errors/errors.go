package errors

import "errors"

var (
	ErrNotFound = errors.New("quote not found")

	ErrInvalidID = errors.New("invalid quote ID format")

	ErrUserNotFound = errors.New("user not found")
)
