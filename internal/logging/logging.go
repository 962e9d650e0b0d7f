// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options control logger setup.
type Options struct {
	// Verbose lowers the level to debug.
	Verbose bool
	// File, when set, also writes logs to a rotating file.
	File string
	// Stderr is the console sink; defaults to os.Stderr.
	Stderr io.Writer
}

// Setup installs the default slog logger and returns a function that
// flushes and closes any log file.
func Setup(opts Options) (*slog.Logger, func() error) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	w := opts.Stderr
	if w == nil {
		w = os.Stderr
	}
	noColor := os.Getenv("NO_COLOR") != ""
	closer := func() error { return nil }

	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		w = io.MultiWriter(w, lj)
		noColor = true
		closer = lj.Close
	}

	logger := slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    noColor,
	}))
	slog.SetDefault(logger)
	return logger, closer
}
