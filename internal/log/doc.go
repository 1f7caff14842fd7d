// Package log builds the slog loggers used by wordcrawl.
//
// This package extends slog to provide:
//   - Masking of credentials a crawl may carry (cookies, authorization
//     headers, tokens) in every log attribute
//   - Verbose mode (debug level) versus the default warn level
//   - Text or JSON output
//   - An optional rotating log file next to stderr
//
// # Usage
//
//	logger, closer, err := log.NewLogger(log.Options{
//	    Writer:  os.Stderr,
//	    Verbose: true,
//	    File:    "/var/log/wordcrawl.log",
//	})
//	defer closer.Close()
//	slog.SetDefault(logger)
package log
