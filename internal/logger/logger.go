package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger is the process logger. It falls back to slog's default until Init
// runs, so packages can log from tests.
var Logger = slog.Default()

// Init configures the text handler on stdout. DEBUG=true lowers the level
// and LOG_FORMAT=json switches to the JSON handler.
func Init() {
	Logger = New(os.Stdout, os.Getenv("DEBUG") == "true", os.Getenv("LOG_FORMAT"))
	slog.SetDefault(Logger)
}

// New builds a logger writing to w.
func New(w io.Writer, debug bool, format string) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}
