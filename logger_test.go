package tindak

import "testing"

// Light smoke tests ensuring exported logger APIs do not panic and remain
// callable with and without key/value pairs.
func TestSimpleLoggerLevels(t *testing.T) {
	logger := NewSimpleLogger()

	logger.Debug("debug message")
	logger.Info("info message", "key", "value")
	logger.Warn("warn message", "dangling-key")
	logger.Error("error message", "attempt", 3)
}

func TestDefaultDebugConfig(t *testing.T) {
	config := DefaultDebugConfig()
	if config.Enabled {
		t.Error("Expected debug off by default")
	}
	if config.RequestIDGen == nil {
		t.Fatal("Expected a request id generator")
	}
	if a, b := config.RequestIDGen(), config.RequestIDGen(); a == b {
		t.Error("Expected unique request ids")
	}
}
