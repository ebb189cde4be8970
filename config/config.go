// Package config loads the service configuration from a YAML file, a .env
// file and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageDrive  = "drive"
	StorageLocal  = "local"
	StorageMemory = "memory"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Storage StorageConfig `yaml:"storage"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr" validate:"required"`
	BodyLimitMB int    `yaml:"body_limit_mb" validate:"gte=1,lte=512"`
	CORSOrigins string `yaml:"cors_origins"`
}

type LLMConfig struct {
	APIKey      string  `yaml:"api_key" validate:"required"`
	BaseURL     string  `yaml:"base_url" validate:"omitempty,url"`
	Model       string  `yaml:"model" validate:"required"`
	Temperature float32 `yaml:"temperature" validate:"gte=0,lte=2"`
}

type StorageConfig struct {
	Backend  string `yaml:"backend" validate:"oneof=drive local memory"`
	FolderID string `yaml:"folder_id" validate:"required_if=Backend drive"`
	LocalDir string `yaml:"local_dir" validate:"required_if=Backend local"`

	GoogleClientID     string `yaml:"google_client_id" validate:"required_if=Backend drive"`
	GoogleClientSecret string `yaml:"google_client_secret" validate:"required_if=Backend drive"`
	GoogleRedirectURL  string `yaml:"google_redirect_url"`
	GoogleRefreshToken string `yaml:"google_refresh_token" validate:"required_if=Backend drive"`
}

type SessionConfig struct {
	MaxTurns int           `yaml:"max_turns" validate:"gte=1"`
	TTL      time.Duration `yaml:"ttl" validate:"gte=0"`
}

type LogConfig struct {
	Level      string `yaml:"level" validate:"oneof=debug info warn error"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":3000", BodyLimitMB: 100},
		LLM:    LLMConfig{Model: "gpt-4o-mini", Temperature: 0.4},
		Storage: StorageConfig{
			Backend:  StorageLocal,
			LocalDir: "data/briefs",
		},
		Session: SessionConfig{MaxTurns: 20, TTL: 2 * time.Hour},
		Log:     LogConfig{Level: "info", MaxSizeMB: 10, MaxBackups: 5, MaxAgeDays: 30},
	}
}

// Load reads path (optional), then .env, then the process environment, and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("Loaded config", "path", path, "storage", cfg.Storage.Backend, "model", cfg.LLM.Model)
	return cfg, nil
}

// ApplyEnv overrides fields with the deployment's environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("OPENAI_API_KEY", &c.LLM.APIKey)
	str("OPENAI_BASE_URL", &c.LLM.BaseURL)
	str("OPENAI_MODEL", &c.LLM.Model)
	str("GOOGLE_CLIENT_ID", &c.Storage.GoogleClientID)
	str("GOOGLE_CLIENT_SECRET", &c.Storage.GoogleClientSecret)
	str("GOOGLE_REDIRECT_URI", &c.Storage.GoogleRedirectURL)
	str("GOOGLE_REFRESH_TOKEN", &c.Storage.GoogleRefreshToken)
	str("DRIVE_FOLDER_ID", &c.Storage.FolderID)
	str("BRIEFBUDDY_STORAGE", &c.Storage.Backend)
	str("BRIEFBUDDY_LOCAL_DIR", &c.Storage.LocalDir)
	str("BRIEFBUDDY_LOG_LEVEL", &c.Log.Level)
	str("BRIEFBUDDY_LOG_FILE", &c.Log.File)
	str("CORS_ALLOWED_ORIGINS", &c.Server.CORSOrigins)

	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Addr = ":" + strconv.Itoa(port)
	}
	if v, ok := lookup("BRIEFBUDDY_SESSION_TTL"); ok && strings.TrimSpace(v) != "" {
		ttl, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid BRIEFBUDDY_SESSION_TTL %q: %w", v, err)
		}
		c.Session.TTL = ttl
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// CORSOriginList splits the comma separated origin list.
func (c *Config) CORSOriginList() []string {
	var out []string
	for _, o := range strings.Split(c.Server.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
