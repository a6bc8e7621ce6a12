package observe

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		debug  bool
		format string
		debugE bool
	}{
		{false, "console", false},
		{true, "console", true},
		{false, "json", false},
		{true, "JSON", true},
	}
	for _, tt := range tests {
		l, err := NewLogger(tt.debug, tt.format)
		if err != nil {
			t.Fatalf("NewLogger(%v, %q): %v", tt.debug, tt.format, err)
		}
		if got := l.Core().Enabled(zapcore.DebugLevel); got != tt.debugE {
			t.Errorf("NewLogger(%v, %q) debug enabled = %v", tt.debug, tt.format, got)
		}
		if !l.Core().Enabled(zapcore.InfoLevel) {
			t.Errorf("NewLogger(%v, %q) info disabled", tt.debug, tt.format)
		}
	}
}
