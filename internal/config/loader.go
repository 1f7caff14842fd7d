package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default crawl file name.
const DefaultConfigFile = ".wordcrawl"

// ErrConfigNotFound is returned when the crawl file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the structure of a crawl file.
//
// Zero values mean "not set" and leave the current setting alone, except
// for MaxDepth, which is a pointer because depth 0 is meaningful.
type File struct {
	StartPages        []string          `yaml:"startPages,omitempty"`
	IgnoredURLs       []string          `yaml:"ignoredUrls,omitempty"`
	IgnoredWords      []string          `yaml:"ignoredWords,omitempty"`
	Parallelism       int               `yaml:"parallelism,omitempty"`
	MaxDepth          *int              `yaml:"maxDepth,omitempty"`
	TimeoutSeconds    int               `yaml:"timeoutSeconds,omitempty"`
	PopularWordCount  int               `yaml:"popularWordCount,omitempty"`
	ResultPath        string            `yaml:"resultPath,omitempty"`
	ProfileOutputPath string            `yaml:"profileOutputPath,omitempty"`
	UserAgent         string            `yaml:"userAgent,omitempty"`
	Cookie            string            `yaml:"cookie,omitempty"`
	Headers           map[string]string `yaml:"headers,omitempty"`
	RequestsPerSecond float64           `yaml:"requestsPerSecond,omitempty"`
}

// LoadConfigFile loads a crawl file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	return &f, nil
}

// Apply copies every setting present in the file onto c.
func (f *File) Apply(c *Config) {
	if len(f.StartPages) > 0 {
		c.StartPages = f.StartPages
	}
	if len(f.IgnoredURLs) > 0 {
		c.IgnoredURLs = f.IgnoredURLs
	}
	if len(f.IgnoredWords) > 0 {
		c.IgnoredWords = f.IgnoredWords
	}
	if f.Parallelism != 0 {
		c.Parallelism = f.Parallelism
	}
	if f.MaxDepth != nil {
		c.MaxDepth = *f.MaxDepth
	}
	if f.TimeoutSeconds != 0 {
		c.Timeout = time.Duration(f.TimeoutSeconds) * time.Second
	}
	if f.PopularWordCount != 0 {
		c.PopularWordCount = f.PopularWordCount
	}
	if f.ResultPath != "" {
		c.ResultPath = f.ResultPath
	}
	if f.ProfileOutputPath != "" {
		c.ProfileOutputPath = f.ProfileOutputPath
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.Cookie != "" {
		c.Cookie = f.Cookie
	}
	if len(f.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		for k, v := range f.Headers {
			c.Headers[k] = v
		}
	}
	if f.RequestsPerSecond != 0 {
		c.RequestsPerSecond = f.RequestsPerSecond
	}
}

// FindConfigFile searches for the crawl file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .wordcrawl in the current directory
// 3. Look for config.yaml in the XDG config directory
// 4. Look for .wordcrawl in the user's home directory
//
// Returns the path to the crawl file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}
