package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nesting levels, e.g. SNAPCARD_DB__PATH sets db.path.
const EnvPrefix = "SNAPCARD_"

// ConfigFlag names the flag holding the optional YAML config file path.
const ConfigFlag = "config"

// Config is the application configuration.
type Config struct {
	DB      DBConfig      `koanf:"db"`
	Server  ServerConfig  `koanf:"server"`
	Sources SourcesConfig `koanf:"sources"`
	Log     LogConfig     `koanf:"log"`
	OpenAI  OpenAIConfig  `koanf:"openai"`
}

// DBConfig locates the SQLite database file.
type DBConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// ServerConfig configures the web UI listener.
type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required"`
}

// SourcesConfig configures imported card sources.
type SourcesConfig struct {
	// ReposDir is where git sources are checked out.
	ReposDir string `koanf:"repos_dir" validate:"required"`
}

// LogConfig selects the slog level and handler format.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// OpenAIConfig configures AI card generation. An empty APIKey falls back to
// the OPENAI_API_KEY environment variable.
type OpenAIConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`
	Model   string `koanf:"model"`
}

// RegisterFlags adds the configuration flags, with their defaults, to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(ConfigFlag, "", "Path to a YAML config file")
	fs.String("db.path", "snapcard.db", "Path to the SQLite database file")
	fs.String("server.addr", ":8080", "Address for the web server to listen on")
	fs.String("sources.repos_dir", "repos", "Directory git sources are cloned into")
	fs.String("log.level", "info", "Log level: debug, info, warn or error")
	fs.String("log.format", "text", "Log format: text or json")
	fs.String("openai.api_key", "", "API key for flashcard generation")
	fs.String("openai.base_url", "", "Base URL of an OpenAI-compatible API")
	fs.String("openai.model", "gpt-3.5-turbo", "Model used for flashcard generation")
}

// Load builds the configuration from, in increasing priority, flag defaults,
// the YAML file named by --config, SNAPCARD_ environment variables and flags
// set on the command line. fs must be parsed and carry RegisterFlags.
func Load(fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	path, err := fs.GetString(ConfigFlag)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read --%s: %w", ConfigFlag, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	// Unchanged flags only fill keys that no earlier layer set.
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration values.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ErrNoAPIKey is returned when generation is requested without an API key.
var ErrNoAPIKey = errors.New("openai.api_key is not set")

// Key returns the configured key, falling back to OPENAI_API_KEY.
func (c OpenAIConfig) Key() (string, error) {
	if c.APIKey != "" {
		return c.APIKey, nil
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key, nil
	}
	return "", ErrNoAPIKey
}

// NewLogger returns a logger writing to w in the configured level and format.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
