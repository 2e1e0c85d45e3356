// Package logging builds the zap loggers used by quizd and the quiz client.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Level string // debug|info|warn|error
	Dev   bool   // console encoder, stack traces on warn
	// Paths replaces stderr as the output sink. The terminal client points it
	// at a file so log lines do not tear the UI.
	Paths []string
}

func New(o Options) (*zap.Logger, error) {
	var config zap.Config
	if o.Dev {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	if o.Level != "" {
		lvl, err := zapcore.ParseLevel(o.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	if len(o.Paths) > 0 {
		config.OutputPaths = o.Paths
		config.ErrorOutputPaths = o.Paths
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
