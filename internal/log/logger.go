package log

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation settings for the log file.
const (
	// MaxLogFileSizeMB is the size at which the log file is rotated.
	MaxLogFileSizeMB = 10

	// MaxLogBackups is the number of rotated files kept.
	MaxLogBackups = 3

	// MaxLogAgeDays is how long rotated files are kept.
	MaxLogAgeDays = 28
)

// Options configures NewLogger.
type Options struct {
	// Writer receives log output. nil means os.Stderr.
	Writer io.Writer

	// Verbose sets the level to Debug instead of Warn.
	Verbose bool

	// JSON selects the JSON handler instead of the text handler.
	JSON bool

	// File, when set, also writes logs to this file with rotation.
	File string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger creates an slog.Logger that masks sensitive values.
// The returned io.Closer closes the log file, if any, and must be called
// when the program exits.
func NewLogger(opts Options) (*slog.Logger, io.Closer, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0750); err != nil {
			return nil, nil, err
		}
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    MaxLogFileSizeMB,
			MaxBackups: MaxLogBackups,
			MaxAge:     MaxLogAgeDays,
			Compress:   true,
		}
		w = io.MultiWriter(w, rotating)
		closer = rotating
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(NewSecureHandler(handler)), closer, nil
}
