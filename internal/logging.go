package internal

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds the JSON logger. When logFile is set, records are also
// written to a size-rotated file.
func newLogger(cfg ApplicationConfig, out io.Writer) (*slog.Logger, io.Closer) {
	var rotate *lumberjack.Logger
	if cfg.LogFile != "" {
		rotate = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    20, // megabytes
			MaxBackups: 2,
			MaxAge:     10, // days
		}
		out = io.MultiWriter(out, rotate)
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	if rotate == nil {
		return logger, nopCloser{}
	}
	return logger, rotate
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
