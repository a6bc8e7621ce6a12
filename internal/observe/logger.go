package observe

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger создаёт zap-логгер: в режиме дебага development с уровнем Debug,
// при format=json production, иначе консольный с уровнем Info.
func NewLogger(debug bool, format string) (*zap.Logger, error) {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		cfg := zap.NewProductionConfig()
		if debug {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		return cfg.Build()
	}
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	cfg.DisableStacktrace = true
	return cfg.Build()
}
