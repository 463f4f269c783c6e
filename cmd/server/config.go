package main

import (
	"fmt"
	"log/slog"

	"github.com/dnalab/design-evolution/internal/config"
)

// loadAppConfig loads the application configuration from the environment
// and an optional config file. Secrets are only reported as present.
func loadAppConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"artifact_dir", cfg.Artifacts.Dir)

	slog.Debug("LLM configuration",
		"planning_model", cfg.LLM.PlanningModel,
		"image_model", cfg.LLM.ImageModel,
		"transcribe_model", cfg.LLM.TranscribeModel,
		"api_key_present", cfg.LLM.GeminiAPIKey != "")

	return cfg, nil
}
