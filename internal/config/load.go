package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. DNA_SERVER_PORT.
const EnvPrefix = "DNA"

// defaults are applied before files and environment are read. Every key
// must appear here (or be bound explicitly) for environment overrides to
// reach Unmarshal.
var defaults = map[string]any{
	"server.port":       8080,
	"server.log_level":  "info",
	"server.static_dir": "",

	"llm.planning_model":   "gemini-2.5-flash",
	"llm.image_model":      "gemini-2.5-flash-image",
	"llm.transcribe_model": "gemini-2.5-flash",
	"llm.plan_prompt_path": "",
	"llm.image_width":      1024,
	"llm.image_height":     1024,

	"retry.max_attempts":  3,
	"retry.initial_delay": "2s",

	"artifacts.dir":       "outputs/images",
	"artifacts.max_count": 1000,

	"task.render_concurrency": 9,

	"api.submit_rate_per_second": 1.0,
	"api.submit_burst":           5,
}

// Load configuration from environment variables and optionally a config.yaml
// in the working directory. Environment variables take precedence over values
// from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// working directory for config.yaml and tolerates its absence; a non-empty
// path must exist.
func LoadFile(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadArtifacts resolves only the artifacts section, from the same sources
// and with the same precedence as LoadFile. Other sections are not
// validated, so offline tooling runs without an API key.
func LoadArtifacts(path string) (ArtifactsConfig, error) {
	cfg, err := read(path)
	if err != nil {
		return ArtifactsConfig{}, err
	}

	if err := validator.New().Struct(&cfg.Artifacts); err != nil {
		return ArtifactsConfig{}, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg.Artifacts, nil
}

// read merges defaults, the config file and the environment without
// validating the result.
func read(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The API key has no default, so it is bound explicitly.
	if err := v.BindEnv("llm.gemini_api_key"); err != nil {
		return nil, fmt.Errorf("error binding environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return &cfg, nil
}
