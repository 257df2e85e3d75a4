// Package logging builds the process-wide slog logger and small attribute helpers.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/teslo-shop/apiserver/config"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// New returns a logger writing to stderr according to cfg.
func New(cfg config.LogConfig) *slog.Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter returns a logger writing to w according to cfg.
// Unknown levels fall back to info; any format other than "json" yields text output.
func NewWithWriter(w io.Writer, cfg config.LogConfig) *slog.Logger {
	level, ok := levels[strings.ToLower(strings.TrimSpace(cfg.Level))]
	if !ok {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Err wraps err as an "error" attribute.
//
//	log.Error("failed to save product", logging.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}
