package config

import "go.uber.org/zap"

// NewLogger builds the process logger for the configured environment.
// "prod" gets JSON output at info level; everything else gets a
// development console logger.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	if cfg.Env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
