package main

import (
	"fmt"
	"log/slog"

	"github.com/dnalab/design-evolution/internal/config"
	"github.com/dnalab/design-evolution/internal/platform/logger"
)

// setupAppLogger configures the process-wide logger from the server section.
func setupAppLogger(cfg *config.Config) (*slog.Logger, error) {
	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return l, nil
}
