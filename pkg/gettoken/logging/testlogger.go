package logging

import (
	"go.uber.org/zap"
)

// NewTestLogger returns a development logger for tests. Stack traces are
// off so expected warnings stay readable.
func NewTestLogger() *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}
