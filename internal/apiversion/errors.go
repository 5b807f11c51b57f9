package apiversion

import "errors"

var (
	// ErrNotANumber is returned when no leading integer survives canonicalization.
	ErrNotANumber = errors.New("version is not a number")
	// ErrNonPositive is returned when the parsed version is zero.
	ErrNonPositive = errors.New("version must be a positive integer")
)
