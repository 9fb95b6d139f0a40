package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/golang-cz/devslog"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

var ErrInvalidLogLevel = errors.New("invalid log level")

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func parseLevel(level string) (slog.Level, error) {
	parsed, ok := logLevels[level]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrInvalidLogLevel, level)
	}
	return parsed, nil
}

// newLogHandler picks devslog when w is a terminal and JSON otherwise.
func newLogHandler(w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return devslog.NewHandler(w, &devslog.Options{HandlerOptions: opts})
	}
	return slog.NewJSONHandler(w, opts)
}

// initLogger installs the default logger on the command's error writer. The regular writer is
// reserved for command output.
func initLogger(c *cli.Command) error {
	level, err := parseLevel(c.String("log-level"))
	if err != nil {
		return err
	}

	w := c.Root().ErrWriter
	if w == nil {
		w = os.Stderr
	}

	slog.SetDefault(slog.New(newLogHandler(w, level)).With("version", VERSION))

	return nil
}
