// Package config loads the toolkit configuration from the process
// environment, optionally seeded from a .env file. Each command declares
// which group of settings it needs (TubeArchivist API, Elasticsearch, or
// neither) so that purely local commands work without any configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/mitchellh/go-homedir"
)

var (
	ErrAPINotConfigured   = errors.New("TA_URL and TA_API_TOKEN must be set; see .env.example")
	ErrIndexNotConfigured = errors.New("ES_HOST, ES_USER and ES_PASSWORD must be set; see .env.example")
)

type Config struct {
	// TubeArchivist API settings.
	TaURL      string `env:"TA_URL" validate:"omitempty,url"`
	TaAPIToken string `env:"TA_API_TOKEN"`

	// Elasticsearch settings for direct index access.
	EsHost     string `env:"ES_HOST" validate:"omitempty,url"`
	EsUser     string `env:"ES_USER"`
	EsPassword string `env:"ES_PASSWORD"`

	// Seconds to pause between mutating API calls; the API extracts
	// metadata synchronously and resents rapid-fire requests.
	APIThrottleSeconds int `env:"TA_API_THROTTLE_SECONDS" env-default:"2"`

	// Import directory processing.
	ImportParallelism int `env:"IMPORT_PARALLELISM" env-default:"4"`

	// A freshly written file is likely an in-progress download; only
	// flag or process files whose modtime is at least this old.
	ImportModTimeHoldSeconds int `env:"IMPORT_MODTIME_HOLD_SECONDS" env-default:"120"`

	// Directory where channel backups are written. Defaults to the
	// working directory.
	ExportDir string `env:"EXPORT_DIR" env-default:"."`

	FfmpegBinPath  string `env:"FFMPEG_BIN" env-default:"ffmpeg"`
	FfprobeBinPath string `env:"FFPROBE_BIN" env-default:"ffprobe"`
}

// Load reads configuration from envFile when provided, falling back to
// the default .env search locations, and finally the bare process
// environment. A missing .env file is not an error.
func Load(envFile string) (*Config, error) {
	cfg := &Config{}

	path, err := resolveEnvFile(envFile)
	if err != nil {
		return nil, err
	}

	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to load configuration from environment: %w", err)
		}
	}

	cfg.TaURL = strings.TrimRight(cfg.TaURL, "/")

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// RequireAPI guards commands that talk to the TubeArchivist API.
func (cfg *Config) RequireAPI() error {
	if cfg.TaURL == "" || cfg.TaAPIToken == "" {
		return ErrAPINotConfigured
	}

	return nil
}

// RequireIndex guards commands that query Elasticsearch directly.
func (cfg *Config) RequireIndex() error {
	if cfg.EsHost == "" || cfg.EsUser == "" || cfg.EsPassword == "" {
		return ErrIndexNotConfigured
	}

	return nil
}

// resolveEnvFile returns the .env file to load. An explicitly provided
// path must exist; the default candidates (./.env, then
// ~/.config/ta-scripts/.env) are optional.
func resolveEnvFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("env file %s could not be read: %w", explicit, err)
		}
		return explicit, nil
	}

	candidates := []string{".env"}
	if home, err := homedir.Dir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "ta-scripts", ".env"))
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", nil
}
