package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"outreach/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvConfig, config.EnvDataDir, config.EnvMaxConcurrency, config.EnvWarmup,
		config.EnvCRMAPIKey, config.EnvRedisURL, config.EnvPollInterval,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	wantData := filepath.Join(tempHome, ".local", "share", "outreach")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "outreach.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Orchestrator.MaxConcurrency != 3 {
		t.Fatalf("unexpected max concurrency: %d", cfg.Orchestrator.MaxConcurrency)
	}
	if cfg.Pipeline.Cooldown() != 7*24*time.Hour {
		t.Fatalf("unexpected cooldown: %v", cfg.Pipeline.Cooldown())
	}
	if cfg.Logging.Format != "auto" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	body := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"

[orchestrator]
max_concurrency = 5
warmup_seconds = 300

[crm]
base_url = "https://crm.example.com/api/"
api_key = "file-key"

[logging]
format = "JSON"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected custom path to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Orchestrator.MaxConcurrency != 5 {
		t.Fatalf("unexpected max concurrency: %d", cfg.Orchestrator.MaxConcurrency)
	}
	if cfg.Orchestrator.Warmup() != 5*time.Minute {
		t.Fatalf("unexpected warmup: %v", cfg.Orchestrator.Warmup())
	}
	if cfg.CRM.BaseURL != "https://crm.example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.CRM.BaseURL)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected lowercase format, got %q", cfg.Logging.Format)
	}
}

func TestEnvOverridesConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[orchestrator]
max_concurrency = 2

[crm]
api_key = "file-key"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(config.EnvConfig, path)
	t.Setenv(config.EnvDataDir, filepath.Join(dir, "env-data"))
	t.Setenv(config.EnvMaxConcurrency, "7")
	t.Setenv(config.EnvWarmup, "5m")
	t.Setenv(config.EnvCRMAPIKey, "env-key")
	t.Setenv(config.EnvRedisURL, "redis://localhost:6379/1")

	cfg, resolved, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != path {
		t.Fatalf("expected OUTREACH_CONFIG to select file, got %q", resolved)
	}
	if cfg.Orchestrator.MaxConcurrency != 7 {
		t.Fatalf("expected env max concurrency, got %d", cfg.Orchestrator.MaxConcurrency)
	}
	if cfg.Orchestrator.WarmupSeconds != 300 {
		t.Fatalf("expected warmup 300s, got %d", cfg.Orchestrator.WarmupSeconds)
	}
	if cfg.CRM.APIKey != "env-key" {
		t.Fatalf("expected env api key, got %q", cfg.CRM.APIKey)
	}
	if cfg.Paths.DataDir != filepath.Join(dir, "env-data") {
		t.Fatalf("unexpected data dir %q", cfg.Paths.DataDir)
	}
	if cfg.Cache.RedisURL != "redis://localhost:6379/1" {
		t.Fatalf("unexpected redis url %q", cfg.Cache.RedisURL)
	}
}

func TestEnvRejectsMalformedNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvMaxConcurrency, "many")
	if _, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for malformed integer")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_crm_api_key_here") {
		t.Fatalf("sample config missing placeholder CRM key: %s", contents)
	}
	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Orchestrator.MaxConcurrency != 3 {
		t.Fatalf("unexpected sample concurrency %d", cfg.Orchestrator.MaxConcurrency)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	cfg = config.Default()
	cfg.Orchestrator.MaxConcurrency = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero max concurrency")
	}

	cfg = config.Default()
	cfg.Orchestrator.WarmupSeconds = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative warmup")
	}

	cfg = config.Default()
	cfg.Orchestrator.StaleTimeout = cfg.Orchestrator.ExecutorTimeout
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when stale timeout <= executor timeout")
	}

	cfg = config.Default()
	cfg.Tasks.PollInterval = 5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for task poll interval above 2s")
	}

	cfg = config.Default()
	cfg.Voice.BaseURL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for relative collaborator url")
	}
}
