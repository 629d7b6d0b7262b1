package config

import (
	"io"
	log "log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

var logLevels = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// NewLogger builds the colored console logger every process installs as
// the slog default. Unknown levels fall back to info.
func NewLogger(level string, w io.Writer) *log.Logger {
	lvl, ok := logLevels[level]
	if !ok {
		lvl = log.LevelInfo
	}

	return log.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.TimeOnly,
	}))
}

// Boot loads the env file and the config, then installs the logger as the
// slog default. A non-empty logLevel overrides the config.
func Boot(cfgPath, envFile, logLevel string) (*Config, error) {
	log.SetDefault(NewLogger(logLevel, os.Stdout))

	if err := LoadEnv(envFile); err != nil {
		return nil, err
	}
	cfg, err := Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log.SetDefault(NewLogger(cfg.LogLevel, os.Stdout))
	return cfg, nil
}
