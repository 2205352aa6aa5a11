package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func parseFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() returned an unexpected error: %v", err)
	}
	return fs
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapcard.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(parseFlags(t))
	if err != nil {
		t.Fatalf("Load() returned an unexpected error: %v", err)
	}
	if cfg.DB.Path != "snapcard.db" {
		t.Errorf("Expected default db path 'snapcard.db', but got '%s'", cfg.DB.Path)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected default addr ':8080', but got '%s'", cfg.Server.Addr)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Unexpected log defaults: %+v", cfg.Log)
	}
	if cfg.OpenAI.Model != "gpt-3.5-turbo" {
		t.Errorf("Expected default model, but got '%s'", cfg.OpenAI.Model)
	}
}

func TestLoadLayers(t *testing.T) {
	path := writeConfig(t, `
db:
  path: /data/from-file.db
server:
  addr: ":9000"
log:
  level: debug
openai:
  model: file-model
`)
	t.Setenv("SNAPCARD_SERVER__ADDR", ":9100")
	t.Setenv("SNAPCARD_OPENAI__API_KEY", "env-key")

	cfg, err := Load(parseFlags(t, "--config", path, "--openai.model", "flag-model"))
	if err != nil {
		t.Fatalf("Load() returned an unexpected error: %v", err)
	}

	if cfg.DB.Path != "/data/from-file.db" {
		t.Errorf("Expected file to override default db path, but got '%s'", cfg.DB.Path)
	}
	if cfg.Server.Addr != ":9100" {
		t.Errorf("Expected env to override file addr, but got '%s'", cfg.Server.Addr)
	}
	if cfg.OpenAI.APIKey != "env-key" {
		t.Errorf("Expected api key from env, but got '%s'", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.Model != "flag-model" {
		t.Errorf("Expected flag to override file model, but got '%s'", cfg.OpenAI.Model)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level from file, but got '%s'", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Expected default log format to fill the gap, but got '%s'", cfg.Log.Format)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "bad log level", args: []string{"--log.level", "loud"}},
		{name: "bad log format", args: []string{"--log.format", "xml"}},
		{name: "empty db path", args: []string{"--db.path", ""}},
		{name: "bad base url", args: []string{"--openai.base_url", "not a url"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(parseFlags(t, tc.args...)); err == nil {
				t.Errorf("Expected an error for %v", tc.args)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(parseFlags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	if err == nil {
		t.Error("Expected an error for a missing config file")
	}
}

func TestOpenAIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := (OpenAIConfig{}).Key(); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Expected ErrNoAPIKey, but got %v", err)
	}

	t.Setenv("OPENAI_API_KEY", "fallback")
	key, err := (OpenAIConfig{}).Key()
	if err != nil || key != "fallback" {
		t.Errorf("Expected fallback key, but got %q, %v", key, err)
	}

	key, err = (OpenAIConfig{APIKey: "configured"}).Key()
	if err != nil || key != "configured" {
		t.Errorf("Expected configured key, but got %q, %v", key, err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	log.Info("hidden")
	log.Warn("shown", "card", "abc")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected info records to be filtered at warn level, got %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"card":"abc"`) {
		t.Errorf("Expected a JSON warn record, got %s", out)
	}
}
