// Package cli holds what every vqa subcommand shares: global flags and
// runtime bootstrap.
package cli

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"video-qa/internal/app"
	"video-qa/internal/app/common"
	"video-qa/internal/app/config"
	envconfig "video-qa/internal/config"
)

var (
	// Verbose switches to the development logger
	Verbose bool
	// ConfigPath overrides the default engine config location
	ConfigPath string
)

// Session is a bootstrapped runtime plus the logger it was built with
type Session struct {
	Runtime *app.Runtime
	Logger  *zap.Logger
	cleanup func()
}

// Close releases the runtime's clients and flushes the logger
func (s *Session) Close() {
	if s.cleanup != nil {
		s.cleanup()
	}
	_ = s.Logger.Sync()
}

// Bootstrap loads .env and the engine config, then assembles the runtime.
// A missing .env or API key is only a warning here; providers that need
// a key fail with a precise message when the runtime is built.
func Bootstrap(ctx context.Context, stderr io.Writer) (*Session, error) {
	keys, envPath, err := envconfig.InitializeConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration warning: %v\n", err)
		keys = &envconfig.APIKeys{}
	}

	logger, err := common.NewLogger(Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if envPath != "" {
		logger.Debug("loaded environment", zap.String("path", envPath))
	}

	cfg, err := config.LoadOrDefault(ConfigPath)
	if err != nil {
		return nil, err
	}

	rt, cleanup, err := app.InitializeRuntime(ctx, cfg, keys, logger)
	if err != nil {
		return nil, err
	}
	return &Session{Runtime: rt, Logger: logger, cleanup: cleanup}, nil
}
