// Package config provides configuration structures and utilities for wordcrawl.
// It defines the crawl settings, loads them from a YAML crawl file and from
// environment variables, and validates the result before a crawl starts.
package config
