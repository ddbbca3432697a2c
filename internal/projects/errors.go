package projects

import "errors"

var (
	// ErrProjectNotFound is returned when no project matches the client phone.
	ErrProjectNotFound = errors.New("project not found")

	// ErrMissingPhone is returned when a lookup is attempted without a phone number.
	ErrMissingPhone = errors.New("client phone is required")
)
