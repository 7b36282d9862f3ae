package app

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns the process logger. Every record carries the binary name
// and the environment so console and worker output can share one sink.
func NewLogger(cfg *Config, binary string) *slog.Logger {
	return newLogger(os.Stdout, cfg, binary)
}

func newLogger(w io.Writer, cfg *Config, binary string) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler = slog.NewTextHandler(w, opts)
	env := ""
	if cfg != nil {
		env = cfg.AppEnv
		if cfg.LogFormat == "json" {
			handler = slog.NewJSONHandler(w, opts)
		}
	}
	logger := slog.New(handler).With(slog.String("app", "salesrecon"))
	if binary != "" {
		logger = logger.With(slog.String("binary", binary))
	}
	if env != "" {
		logger = logger.With(slog.String("env", env))
	}
	return logger
}
