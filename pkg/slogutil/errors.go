package slogutil

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is matched by every logging configuration error.
	ErrInvalidConfig = errors.New("invalid logging config")

	// ErrInvalidLevel reports a Level outside debug, info, warn and error.
	ErrInvalidLevel = fmt.Errorf("%w: unknown level", ErrInvalidConfig)

	// ErrInvalidFormat reports a Format other than text or json.
	ErrInvalidFormat = fmt.Errorf("%w: unknown format", ErrInvalidConfig)
)
