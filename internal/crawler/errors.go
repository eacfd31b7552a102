package crawler

import "errors"

var (
	// ErrInvalidPattern is returned when a URL filter rule is not a valid
	// regular expression.
	ErrInvalidPattern = errors.New("invalid URL filter pattern")

	// ErrUnknownImplementation is returned by New for an implementation
	// name other than "parallel" or "sequential".
	ErrUnknownImplementation = errors.New("unknown crawler implementation")
)
