// Package logging builds the zap logger used by every command. Output goes to
// .cfpgen/logs/cfpgen.log so failures can be inspected after the terminal UI
// has closed.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileName is the log file created inside the logs directory.
const FileName = "cfpgen.log"

// Options tune the logger.
type Options struct {
	// Verbose lowers the level to debug.
	Verbose bool
	// Console mirrors output to stderr. The TUI leaves this off.
	Console bool
}

// New creates (or appends to) logsDir/cfpgen.log and returns a JSON logger.
func New(logsDir string, opts Options) (*zap.Logger, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	config := zap.NewProductionConfig()
	if opts.Verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{Path(logsDir)}
	config.ErrorOutputPaths = []string{"stderr"}
	if opts.Console {
		config.OutputPaths = append(config.OutputPaths, "stderr")
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}
	return logger, nil
}

// Path returns the log file location for logsDir.
func Path(logsDir string) string {
	return filepath.Join(logsDir, FileName)
}
