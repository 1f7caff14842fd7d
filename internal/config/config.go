package config

import (
	"path/filepath"
	"runtime"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "wordcrawl"

	// DefaultMaxDepth is how many link levels are followed from each start page.
	// Depth 1 visits only the start pages.
	DefaultMaxDepth = 10

	// DefaultTimeout is how long a crawl may keep starting new pages.
	// Pages already being parsed when it expires are still finished.
	DefaultTimeout = 1 * time.Minute

	// DefaultPopularWordCount is how many of the most frequent words are reported.
	DefaultPopularWordCount = 10

	// DefaultUserAgent identifies wordcrawl in HTTP requests.
	DefaultUserAgent = "wordcrawl/1.0 (+https://github.com/nao1215/wordcrawl)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Config holds all configuration options for a crawl.
// It is populated from defaults, the crawl file, environment variables and
// CLI flags, in that order of increasing precedence.
type Config struct {
	// StartPages are the URLs the traversal starts from.
	StartPages []string

	// IgnoredURLs are regular expressions; a URL matching any of them in
	// full is never visited.
	IgnoredURLs []string

	// IgnoredWords are regular expressions; a word matching any of them in
	// full is not counted.
	IgnoredWords []string

	// Parallelism is the maximum number of pages parsed at the same time.
	Parallelism int

	// MaxDepth is the depth budget of every start page.
	MaxDepth int

	// Timeout is added to the start time to form the crawl deadline.
	Timeout time.Duration

	// PopularWordCount is how many words the report lists. 0 lists all.
	PopularWordCount int

	// ResultPath is the file the report is written to. Empty means stdout.
	ResultPath string

	// ProfileOutputPath is the file timing data is appended to.
	// Empty disables profiling output.
	ProfileOutputPath string

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// Cookie is sent with every HTTP request when set.
	Cookie string

	// Headers are extra HTTP request headers.
	Headers map[string]string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// RequestsPerSecond limits the request rate. 0 means unlimited.
	RequestsPerSecond float64

	// Verbose enables debug logging.
	Verbose bool

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ConfigFilePath is the crawl file path given on the command line.
	ConfigFilePath string

	// LogFile is a rotating log file written in addition to stderr.
	LogFile string

	// LogJSON selects JSON log output instead of text.
	LogJSON bool

	// DBDir is the directory of the SQLite database.
	DBDir string

	// SaveToDB stores the crawl result in the database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Parallelism:      runtime.NumCPU(),
		MaxDepth:         DefaultMaxDepth,
		Timeout:          DefaultTimeout,
		PopularWordCount: DefaultPopularWordCount,
		UserAgent:        DefaultUserAgent,
		MaxBodySize:      DefaultMaxBodySize,
		DBDir:            XDGDataDir(),
		SaveToDB:         true,
	}
}

// XDGDataDir returns the XDG data directory for wordcrawl.
// On Linux: ~/.local/share/wordcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for wordcrawl.
// On Linux: ~/.config/wordcrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.StartPages) == 0 {
		return ErrNoStartPages
	}

	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Parallelism <= 0 {
		return ErrInvalidParallelism
	}

	if c.PopularWordCount < 0 {
		return ErrInvalidPopularWordCount
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.RequestsPerSecond < 0 {
		return ErrInvalidRequestRate
	}

	if _, err := CompilePatterns(c.IgnoredURLs); err != nil {
		return err
	}
	if _, err := CompilePatterns(c.IgnoredWords); err != nil {
		return err
	}

	return nil
}
