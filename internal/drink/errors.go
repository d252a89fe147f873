package drink

import "errors"

var (
	// ErrNotFound is returned when no drink has the requested ID.
	ErrNotFound = errors.New("drink not found")

	// ErrDuplicateTitle is returned when another drink already uses the title.
	ErrDuplicateTitle = errors.New("drink title already exists")

	// ErrInvalid is returned when a drink fails validation.
	ErrInvalid = errors.New("invalid drink")
)
