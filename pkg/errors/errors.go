// Package errors provides common, reusable error values and helpers.
package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrDeviceNotFound      = errors.New("device not found")
	ErrIncorrectCredential = errors.New("incorrect credential")
	ErrInvalidInput        = errors.New("invalid input")
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrInvalidHashFormat   = errors.New("invalid credential hash format")
)

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
