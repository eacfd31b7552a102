package config

import "errors"

// Configuration errors. Validate returns them wrapped with the offending
// value where one exists; use errors.Is to test for them.
var (
	// ErrNoStartPages is returned when neither the configuration file nor
	// the command line names a page to start from.
	ErrNoStartPages = errors.New("no start pages: pass URLs as arguments or set startPages in the config file")

	// ErrInvalidTimeout is returned for a negative crawl or request timeout.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidMaxDepth is returned for a negative maximum depth.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidPopularWordCount is returned for a negative word count.
	ErrInvalidPopularWordCount = errors.New("invalid popular word count: must be non-negative")

	// ErrInvalidParallelism is returned for a negative parallelism.
	// Zero selects every CPU.
	ErrInvalidParallelism = errors.New("invalid parallelism: must be non-negative")

	// ErrUnknownImplementation is returned when implementationOverride is not
	// "parallel" or "sequential".
	ErrUnknownImplementation = errors.New("unknown implementation: must be parallel or sequential")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrConflictingProxy is returned when both a proxy and --tor are set.
	ErrConflictingProxy = errors.New("conflicting proxy settings: --proxy and --tor cannot be used together")

	// ErrInvalidMaxBodySize is returned for a negative body size.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidPattern is returned when an ignoredUrls or ignoredWords entry
	// is not a valid regular expression.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrConfigNotFound is returned when an explicitly given configuration
	// file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
