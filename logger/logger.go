// Package logger holds the process wide zap logger used by the processor
// and its host adapters.
package logger

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process logger. It discards everything until Init is called.
var Logger = zap.NewNop()

// Init replaces Logger with a production logger, at debug level when verbose.
func Init(verbose bool) error {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	Logger = l
	return nil
}

func Sync() {
	_ = Logger.Sync()
}

func WithMethod(method string) *zap.Logger {
	return Logger.With(zap.String("method", method))
}

// WithExecution returns a logger tagged with the method and a fresh
// execution id, and the id itself.
func WithExecution(method string) (*zap.Logger, string) {
	id := uuid.NewString()
	return WithMethod(method).With(zap.String("execution_id", id)), id
}
