package tindak

import (
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
)

// Logger is the minimal structured logging interface the engine emits debug
// output through. Key/value pairs follow the message.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// SimpleLogger writes leveled lines to stderr. Meant for development; bring
// your own Logger in production.
type SimpleLogger struct {
	logger *log.Logger
}

// NewSimpleLogger creates a stderr-backed logger.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{logger: log.New(os.Stderr, "", log.LstdFlags)}
}

func (l *SimpleLogger) log(level, msg string, keysAndValues ...interface{}) {
	line := level + " " + msg
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		line += fmt.Sprintf(" %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	l.logger.Println(line)
}

func (l *SimpleLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log("DEBUG", msg, keysAndValues...)
}

func (l *SimpleLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log("INFO", msg, keysAndValues...)
}

func (l *SimpleLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log("WARN", msg, keysAndValues...)
}

func (l *SimpleLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log("ERROR", msg, keysAndValues...)
}

// DebugConfig gates per-concern debug logging.
type DebugConfig struct {
	Enabled      bool
	LogActions   bool
	LogCache     bool
	LogRetries   bool
	LogToken     bool
	LogThrottle  bool
	RequestIDGen func() string
}

// DefaultDebugConfig enables all concerns with uuid request ids, but leaves
// the whole thing switched off until WithDebug.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		Enabled:      false,
		LogActions:   true,
		LogCache:     true,
		LogRetries:   true,
		LogToken:     true,
		LogThrottle:  true,
		RequestIDGen: uuid.NewString,
	}
}
