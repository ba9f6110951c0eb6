// Package logging configures the process-wide slog logger for Shipyard.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

// LevelSilent is above every level slog emits
const LevelSilent = slog.Level(1000)

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
	"silent":  LevelSilent,
}

// ParseLogLevel maps a level name to a slog.Level. "none" is accepted as an
// alias of "silent"; unknown names fall back to info.
func ParseLogLevel(level string) slog.Level {
	if level == "none" {
		return LevelSilent
	}
	if l, ok := levels[level]; ok {
		return l
	}
	return slog.LevelInfo
}

// ValidLogLevels lists the accepted level names from most to least verbose
func ValidLogLevels() []string {
	return []string{"debug", "info", "warning", "error", "silent"}
}

// InitLogging sends text logs at the given level to stderr
func InitLogging(logLevel string) {
	InitLoggingTo(os.Stderr, logLevel)
}

func InitLoggingTo(w io.Writer, logLevel string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLogLevel(logLevel),
	})))
}

// LogLevel backs the --log-level flag. It stays silent until set so that
// commands fall back to the configured level.
var LogLevel = &logLevelFlag{value: "silent"}

var _ pflag.Value = (*logLevelFlag)(nil)

type logLevelFlag struct {
	value string
	set   bool
}

func (l *logLevelFlag) Set(value string) error {
	if !slices.Contains(ValidLogLevels(), value) {
		return fmt.Errorf("invalid value '%s'. Allowed values: %s",
			value, strings.Join(ValidLogLevels(), ", "))
	}
	l.value, l.set = value, true
	return nil
}

func (l *logLevelFlag) String() string { return l.value }

func (l *logLevelFlag) Type() string {
	return fmt.Sprintf("one of [%s]", strings.Join(ValidLogLevels(), "|"))
}

// IsSet reports whether --log-level was given on the command line
func (l *logLevelFlag) IsSet() bool {
	return l.set
}
