// Package observability owns the process-wide zap loggers. CLI commands
// log human-oriented output on stderr through CLILogger; the HTTP server
// logs structured JSON through ServerLogger.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is used by CLI command paths. It defaults to a no-op logger
// until InitCLILogger runs so early failures never nil-panic.
var CLILogger = zap.NewNop()

// ServerLogger is used by the HTTP server and the job engine.
var ServerLogger = zap.NewNop()

// InitCLILogger configures the CLI logger. Profile "structured" emits
// JSON; anything else emits the console encoding.
func InitCLILogger(level, profile string) error {
	logger, err := build(level, profile, true)
	if err != nil {
		return err
	}
	CLILogger = logger
	return nil
}

// InitServerLogger configures the server logger.
func InitServerLogger(level, profile string) error {
	logger, err := build(level, profile, false)
	if err != nil {
		return err
	}
	ServerLogger = logger
	return nil
}

// Sync flushes both loggers. Safe to call at any point.
func Sync() {
	_ = CLILogger.Sync()
	_ = ServerLogger.Sync()
}

func build(level, profile string, stderrOnly bool) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("observability: invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if profile == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	if stderrOnly {
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}

	return cfg.Build()
}
