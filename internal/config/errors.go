package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoStartPages is returned when neither the crawl file nor the
	// command line provides a URL to start from.
	ErrNoStartPages = errors.New("no start pages specified: provide a URL or set startPages in the crawl file")

	// ErrInvalidMaxDepth is returned when the maximum depth is negative.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A zero timeout would make the deadline expire before the first page.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidParallelism is returned when parallelism is not positive.
	ErrInvalidParallelism = errors.New("invalid parallelism: must be positive")

	// ErrInvalidPopularWordCount is returned when the popular word count is negative.
	// Use 0 to report every word.
	ErrInvalidPopularWordCount = errors.New("invalid popular word count: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidRequestRate is returned when the request rate is negative.
	// Use 0 for no limit.
	ErrInvalidRequestRate = errors.New("invalid request rate: must be non-negative")

	// ErrInvalidPattern is returned when an ignored URL or word pattern is
	// not a valid regular expression.
	ErrInvalidPattern = errors.New("invalid pattern")
)
