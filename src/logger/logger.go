package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger defines the interface for logging throughout the application.
// Different implementations can be used for different contexts (console, silent, structured, etc.)
type Logger interface {
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// ConsoleLogger writes human-readable logs to stderr through zerolog.
// Used for normal operation and debugging.
type ConsoleLogger struct {
	log zerolog.Logger
}

// NewConsoleLogger creates a console logger at the given level ("debug", "info", "warn", "error").
// Unknown levels fall back to info.
func NewConsoleLogger(level string) *ConsoleLogger {
	return NewWriterLogger(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}, level)
}

// NewWriterLogger creates a logger writing to w. Tests use it with a buffer.
func NewWriterLogger(w io.Writer, level string) *ConsoleLogger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return &ConsoleLogger{
		log: zerolog.New(w).Level(lvl).With().Timestamp().Logger(),
	}
}

// Zerolog exposes the underlying logger for components that log structured fields.
func (c *ConsoleLogger) Zerolog() zerolog.Logger {
	return c.log
}

func (c *ConsoleLogger) Info(msg string, args ...interface{}) {
	c.log.Info().Msg(fmt.Sprintf(msg, args...))
}

func (c *ConsoleLogger) Warn(msg string, args ...interface{}) {
	c.log.Warn().Msg(fmt.Sprintf(msg, args...))
}

func (c *ConsoleLogger) Error(msg string, args ...interface{}) {
	c.log.Error().Msg(fmt.Sprintf(msg, args...))
}

func (c *ConsoleLogger) Debug(msg string, args ...interface{}) {
	c.log.Debug().Msg(fmt.Sprintf(msg, args...))
}

// SilentLogger discards all log messages.
// Used when running the MCP server on stdio, where stray output would corrupt the protocol.
type SilentLogger struct{}

func NewSilentLogger() *SilentLogger {
	return &SilentLogger{}
}

func (s *SilentLogger) Info(msg string, args ...interface{})  {}
func (s *SilentLogger) Warn(msg string, args ...interface{})  {}
func (s *SilentLogger) Error(msg string, args ...interface{}) {}
func (s *SilentLogger) Debug(msg string, args ...interface{}) {}
