package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
ai:
  provider: mock
summary:
  timezone: "America/Santiago"
  max_period_days: 31
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr() != "127.0.0.1:9000" {
		t.Errorf("addr = %s", cfg.Server.Addr())
	}
	if cfg.AI.Provider != ProviderMock {
		t.Errorf("provider = %s", cfg.AI.Provider)
	}
	if cfg.Summary.MaxPeriodDays != 31 {
		t.Errorf("max_period_days = %d", cfg.Summary.MaxPeriodDays)
	}
	loc, err := cfg.Summary.Location()
	if err != nil || loc.String() != "America/Santiago" {
		t.Errorf("location = %v, %v", loc, err)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	cfg, err := Load(writeConfig(t, "debug: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: "./data/db/fika.db"
  image_dir: "./data/images"
inbox:
  directory: "./inbox"
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "db", "fika.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
	if want := filepath.Join(dir, "data", "images"); cfg.Storage.ImageDir != want {
		t.Errorf("image_dir = %s, want %s", cfg.Storage.ImageDir, want)
	}
	if want := filepath.Join(dir, "inbox"); cfg.Inbox.Directory != want {
		t.Errorf("inbox.directory = %s, want %s", cfg.Inbox.Directory, want)
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := map[string]string{
		"provider": "ai:\n  provider: openai\n",
		"style":    "render:\n  default_style: fancy\n",
		"timezone": "summary:\n  timezone: Nowhere/City\n",
		"yaml":     "server: [\n",
	}
	for name, content := range tests {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults: %+v", cfg.Server)
	}
	if cfg.AI.Provider != ProviderGemini || cfg.AI.APIKeyEnv != "GEMINI_API_KEY" {
		t.Errorf("ai defaults: %+v", cfg.AI)
	}
	if cfg.AI.VisionModel != cfg.AI.Model {
		t.Errorf("vision model should default to the text model: %+v", cfg.AI)
	}
	if cfg.AI.Timeout() != 60*time.Second {
		t.Errorf("timeout = %v", cfg.AI.Timeout())
	}
	if cfg.Summary.MaxPeriodDays != 366 || cfg.Summary.Timezone != "Local" {
		t.Errorf("summary defaults: %+v", cfg.Summary)
	}
	if cfg.Render.DefaultStyle != "simple" || cfg.Render.CacheSize != 64 {
		t.Errorf("render defaults: %+v", cfg.Render)
	}
	if cfg.Inbox.Enabled {
		t.Error("inbox should be disabled by default")
	}
	if len(cfg.Inbox.Extensions) != 4 || cfg.Inbox.Extensions[0] != ".jpg" {
		t.Errorf("inbox extensions: %v", cfg.Inbox.Extensions)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestAIConfig_ResolvedAPIKey(t *testing.T) {
	t.Setenv("FIKA_TEST_KEY", "from-env")
	a := AIConfig{APIKeyEnv: "FIKA_TEST_KEY"}
	if got := a.ResolvedAPIKey(); got != "from-env" {
		t.Errorf("ResolvedAPIKey() = %q", got)
	}
	a.APIKey = "inline"
	if got := a.ResolvedAPIKey(); got != "inline" {
		t.Errorf("ResolvedAPIKey() = %q", got)
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
		Inbox:   InboxConfig{Enabled: true, Directory: "/tmp/inbox"},
	}
	ApplyDefaults(cfg)
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 || !loaded.Inbox.Enabled || loaded.Inbox.Directory != "/tmp/inbox" {
		t.Errorf("loaded: %+v", loaded)
	}
}
