package main

import (
	"io"
	"log/slog"

	"github.com/tropica/briefbuddy/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// setupLogger installs the default slog logger. When a log file is
// configured, records are also written to a size-rotated file.
func setupLogger(cfg *config.Config, out io.Writer) io.Closer {
	var closer io.Closer = nopCloser{}
	if cfg.Log.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(out, rotator)
		closer = rotator
	}
	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	slog.SetDefault(slog.New(handler))
	return closer
}
