package parser

import "errors"

var (
	// ErrHTTPStatus is returned when the server answers with a status >= 400.
	ErrHTTPStatus = errors.New("unexpected HTTP status")

	// ErrUnsupportedScheme is returned for addresses the fetcher cannot load,
	// such as file:// addresses without WithLocalFiles.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")

	// ErrInvalidPattern is returned when an ignored-word rule is not a valid
	// regular expression.
	ErrInvalidPattern = errors.New("invalid ignored word pattern")
)
