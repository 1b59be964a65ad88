// Package logger provides the structured slog logger for the process.
// Logs are written in JSON format, to stdout by default or to a
// size-rotated file when one is configured.
package logger

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates a JSON slog.Logger. When logFile is non-empty the output is
// rotated at 20 MB with five backups kept; otherwise it goes to stdout.
func New(logFile string, level slog.Level) *slog.Logger {
	var out io.Writer = os.Stdout
	if logFile != "" {
		out = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			Compress:   true,
		}
	}
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
