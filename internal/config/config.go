package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm" validate:"required"`
	Retry     RetryConfig     `mapstructure:"retry" validate:"required"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts" validate:"required"`
	Task      TaskConfig      `mapstructure:"task" validate:"required"`
	API       APIConfig       `mapstructure:"api" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// StaticDir, when set, is served at / for the browser client
	StaticDir string `mapstructure:"static_dir" validate:"omitempty,dir"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey    string `mapstructure:"gemini_api_key" validate:"required"`
	PlanningModel   string `mapstructure:"planning_model" validate:"required"`
	ImageModel      string `mapstructure:"image_model" validate:"required"`
	TranscribeModel string `mapstructure:"transcribe_model" validate:"required"`
	// PlanPromptPath overrides the built-in planning prompt template
	PlanPromptPath string `mapstructure:"plan_prompt_path" validate:"omitempty,file"`
	ImageWidth     int    `mapstructure:"image_width" validate:"gt=0"`
	ImageHeight    int    `mapstructure:"image_height" validate:"gt=0"`
}

// RetryConfig controls backoff around upstream model calls.
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts" validate:"gte=1,lte=10"`
	InitialDelay time.Duration `mapstructure:"initial_delay" validate:"gt=0"`
}

// ArtifactsConfig controls the on-disk image cache.
type ArtifactsConfig struct {
	Dir      string `mapstructure:"dir" validate:"required"`
	MaxCount int    `mapstructure:"max_count" validate:"gte=1"`
}

// TaskConfig controls background execution.
type TaskConfig struct {
	// RenderConcurrency bounds concurrent image renders across all tasks;
	// tasks themselves start as soon as they are submitted
	RenderConcurrency int `mapstructure:"render_concurrency" validate:"gte=1"`
}

// APIConfig contains HTTP API behaviour settings.
type APIConfig struct {
	// SubmitRatePerSecond limits feedback submissions across all clients
	SubmitRatePerSecond float64 `mapstructure:"submit_rate_per_second" validate:"gt=0"`
	SubmitBurst         int     `mapstructure:"submit_burst" validate:"gte=1"`
}
