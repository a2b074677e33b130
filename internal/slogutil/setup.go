package slogutil

import (
	"io"
	"log/slog"

	"typeguess/internal/config"
)

// DefaultBackups is the number of rotated log files kept.
const DefaultBackups = 3

// Setup builds the process logger from cfg. Records at level or above go
// to stderr. When cfg.File is set, the file receives every record at the
// configured level and stderr only sees warnings and errors.
//
// The returned closer releases the log file and is never nil.
func Setup(cfg config.LoggingConfig, level slog.Level, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	if cfg.File == "" {
		return NewLogger(stderr, level, cfg.Format), nopCloser{}, nil
	}

	rf, err := OpenRotatingFile(cfg.File, int64(cfg.MaxSizeMB)<<20, DefaultBackups)
	if err != nil {
		return nil, nil, err
	}
	fileLevel := LevelFromString(cfg.Level)
	if level < fileLevel {
		fileLevel = level
	}
	console := max(level, slog.LevelWarn)

	h := NewTeeHandler(
		NewLogger(rf, fileLevel, cfg.Format).Handler(),
		NewLogger(stderr, console, "human").Handler(),
	)
	return slog.New(h), rf, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
