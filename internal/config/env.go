package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvUserAgent   = "WORDCRAWL_USER_AGENT"
	EnvCookie      = "WORDCRAWL_COOKIE"
	EnvDBDir       = "WORDCRAWL_DB_DIR"
	EnvLogFile     = "WORDCRAWL_LOG_FILE"
	EnvParallelism = "WORDCRAWL_PARALLELISM"
)

// DefaultEnvFile is read when no env file is given explicitly.
const DefaultEnvFile = ".env"

// LoadEnvFile reads KEY=VALUE pairs from a dotenv file without touching
// the process environment. When path is empty, DefaultEnvFile is read if it
// exists.
func LoadEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	env, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return env, nil
}

// EnvLookup returns a lookup function that prefers the process environment
// and falls back to values read from a dotenv file.
func EnvLookup(fileEnv map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	}
}

// ApplyEnv copies WORDCRAWL_* settings found through lookup onto c.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvUserAgent); ok && v != "" {
		c.UserAgent = v
	}
	if v, ok := lookup(EnvCookie); ok && v != "" {
		c.Cookie = v
	}
	if v, ok := lookup(EnvDBDir); ok && v != "" {
		c.DBDir = v
	}
	if v, ok := lookup(EnvLogFile); ok && v != "" {
		c.LogFile = v
	}
	if v, ok := lookup(EnvParallelism); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvParallelism, err)
		}
		c.Parallelism = n
	}
	return nil
}
