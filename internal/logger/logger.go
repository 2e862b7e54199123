// Package logger provides centralized logging for eegview.
// It wraps charmbracelet/log with level and destination configuration.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// EnvLevel names the environment variable consulted when no level flag is
// given.
const EnvLevel = "EEGVIEW_LOG_LEVEL"

// Logger is the global logger instance used throughout eegview.
var Logger *log.Logger

// output is where Logger and component loggers write.
var output io.Writer = os.Stderr

func init() {
	Logger = log.New(output)
	Logger.SetTimeFormat("")
	Logger.SetLevel(log.WarnLevel)
}

// Configure sets up the logger from CLI flags and the environment.
// The level flag takes precedence over EEGVIEW_LOG_LEVEL; the default is
// warn so that command output stays clean.
//
// When logFile is set, log output is appended to it and the returned
// closer must be closed on exit. Otherwise the closer is a no-op.
func Configure(logLevel string, logFile string) (io.Closer, error) {
	level := logLevel
	if level == "" {
		level = os.Getenv(EnvLevel)
	}

	var closer io.Closer = nopCloser{}
	output = os.Stderr
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, err
		}
		output = file
		closer = file
	}

	Logger = log.New(output)
	Logger.SetTimeFormat("")
	Logger.SetLevel(parseLogLevel(level))
	return closer, nil
}

// parseLogLevel converts a string to a log level. Unknown values map to
// warn.
func parseLogLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.WarnLevel
	}
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

// NewStyledLogger creates a component logger ("loader", "viewer", ...)
// that shares the global logger's level and destination.
func NewStyledLogger(prefix string) *log.Logger {
	styles := log.DefaultStyles()

	styles.Levels[log.DebugLevel] = levelStyle("DEBUG", "240") // Gray
	styles.Levels[log.InfoLevel] = levelStyle("INFO", "33")    // Blue
	styles.Levels[log.WarnLevel] = levelStyle("WARN", "214")   // Orange
	styles.Levels[log.ErrorLevel] = levelStyle("ERROR", "196") // Red
	styles.Levels[log.FatalLevel] = levelStyle("FATAL", "88")  // Dark red

	styles.Keys["path"] = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))     // Blue
	styles.Keys["strategy"] = lipgloss.NewStyle().Foreground(lipgloss.Color("99")) // Purple
	styles.Keys["error"] = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))   // Red
	styles.Keys["warning"] = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // Orange
	styles.Values["error"] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	componentLogger := log.NewWithOptions(output, log.Options{
		Prefix: prefix + " ",
	})
	componentLogger.SetStyles(styles)
	componentLogger.SetLevel(Logger.GetLevel())

	return componentLogger
}

func levelStyle(name, background string) lipgloss.Style {
	return lipgloss.NewStyle().
		SetString(name).
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color(background)).
		Foreground(lipgloss.Color("15")) // White text
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
