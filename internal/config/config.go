package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const executorName = "outreach"

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and binary locations.
type Paths struct {
	DataDir string `toml:"data_dir"`
	// ExecutorBinary is the program launched as "<binary> exec" for each
	// stage action. Empty resolves the outreach CLI.
	ExecutorBinary string `toml:"executor_binary"`
	TargetsFile    string `toml:"targets_file"`
}

// Orchestrator contains the stage coordinator timing and limits.
type Orchestrator struct {
	PollInterval       int `toml:"poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	WarmupSeconds      int `toml:"warmup_seconds"`
	MaxConcurrency     int `toml:"max_concurrency"`
	StaleTimeout       int `toml:"stale_timeout"`
	ExecutorTimeout    int `toml:"executor_timeout"`
	StderrTailBytes    int `toml:"stderr_tail_bytes"`
}

// Tasks contains configuration for the ad hoc task queue workers.
type Tasks struct {
	PollInterval       int `toml:"poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	Workers            int `toml:"workers"`
	// StaleTimeout is how long a task may sit in processing before an idle
	// worker marks it failed.
	StaleTimeout int `toml:"stale_timeout"`
}

// Pipeline contains batch sizes and policy for the prospect, enrich, and
// outreach jobs.
type Pipeline struct {
	ProspectBatch    int    `toml:"prospect_batch"`
	ResultsPerTarget int    `toml:"results_per_target"`
	EnrichBatch      int    `toml:"enrich_batch"`
	OutreachBatch    int    `toml:"outreach_batch"`
	CooldownDays     int    `toml:"cooldown_days"`
	PassingSiteScore int    `toml:"passing_site_score"`
	ProspectSource   string `toml:"prospect_source"`
	OutreachSubject  string `toml:"outreach_subject"`
	OutreachBody     string `toml:"outreach_body"`
	// PromoteAfterSends hands outreached items to the orchestrator. The
	// outreach email counts as the first touch, so they enter warming_up
	// and only the call remains.
	PromoteAfterSends bool `toml:"promote_after_sends"`
}

// Collaborator contains connection settings for one external HTTP API.
type Collaborator struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Cache contains configuration for the skill lookup cache. An empty
// RedisURL disables caching.
type Cache struct {
	RedisURL   string `toml:"redis_url"`
	TTLSeconds int    `toml:"ttl_seconds"`
	KeyPrefix  string `toml:"key_prefix"`
}

// Breaker contains circuit breaker thresholds shared by collaborator clients.
type Breaker struct {
	ConsecutiveFailures int `toml:"consecutive_failures"`
	OpenSeconds         int `toml:"open_seconds"`
	HalfOpenRequests    int `toml:"half_open_requests"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format      string   `toml:"format"`
	Level       string   `toml:"level"`
	OutputPaths []string `toml:"output_paths"`
}

// Config encapsulates all configuration values for outreach.
//
// Configuration sections by subsystem:
//   - Paths: data directory, executor binary, prospect targets
//   - Orchestrator: stage coordinator polling, warmup, concurrency, timeouts
//   - Tasks: ad hoc skill worker polling
//   - Pipeline: batch sizes, cooldown, outreach message template
//   - CRM, Voice, BizSearch, SiteScore: collaborator endpoints
//   - Cache: redis-backed lookup cache
//   - Breaker: collaborator circuit breaker thresholds
//   - Logging: log format and level
type Config struct {
	Paths        Paths        `toml:"paths"`
	Orchestrator Orchestrator `toml:"orchestrator"`
	Tasks        Tasks        `toml:"tasks"`
	Pipeline     Pipeline     `toml:"pipeline"`
	CRM          Collaborator `toml:"crm"`
	Voice        Collaborator `toml:"voice"`
	BizSearch    Collaborator `toml:"bizsearch"`
	SiteScore    Collaborator `toml:"sitescore"`
	Cache        Cache        `toml:"cache"`
	Breaker      Breaker      `toml:"breaker"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/outreach/config.toml")
}

// Load locates, parses, and validates a configuration file. When path is
// empty, OUTREACH_CONFIG is consulted before the default locations. A
// missing file is not an error; defaults and environment overrides apply.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfig))
	}
	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("outreach.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon and CLI operation.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.DataDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.DataDir, err)
	}
	return nil
}

// DatabasePath returns the SQLite file location inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "outreach.db")
}

// LockPath returns the orchestrator single-instance lock location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "outreachd.lock")
}

// ExecutorBinary returns the program used for child-process stage executors.
// Unset, it resolves the "outreach" CLI beside the running binary, then on
// PATH, and finally the running binary itself.
func (c *Config) ExecutorBinary() (string, error) {
	if bin := strings.TrimSpace(c.Paths.ExecutorBinary); bin != "" {
		return bin, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executor binary: %w", err)
	}
	if filepath.Base(exe) == executorName {
		return exe, nil
	}
	sibling := filepath.Join(filepath.Dir(exe), executorName)
	if info, err := os.Stat(sibling); err == nil && !info.IsDir() {
		return sibling, nil
	}
	if found, err := exec.LookPath(executorName); err == nil {
		return found, nil
	}
	return exe, nil
}

// Warmup is the minimum delay between the first-touch email and the call.
func (o Orchestrator) Warmup() time.Duration {
	return seconds(o.WarmupSeconds)
}

// Poll is the sleep between coordinator ticks.
func (o Orchestrator) Poll() time.Duration { return seconds(o.PollInterval) }

// ErrorRetry is the sleep after a failed store query.
func (o Orchestrator) ErrorRetry() time.Duration { return seconds(o.ErrorRetryInterval) }

// Stale is the age after which a processing row is reclaimed.
func (o Orchestrator) Stale() time.Duration { return seconds(o.StaleTimeout) }

// Timeout bounds one executor child process.
func (o Orchestrator) Timeout() time.Duration { return seconds(o.ExecutorTimeout) }

// Poll is the sleep between empty task polls.
func (t Tasks) Poll() time.Duration { return seconds(t.PollInterval) }

// ErrorRetry is the sleep after a failed task store query.
func (t Tasks) ErrorRetry() time.Duration { return seconds(t.ErrorRetryInterval) }

// Stale is the age after which a processing task is reclaimed.
func (t Tasks) Stale() time.Duration { return seconds(t.StaleTimeout) }

// Cooldown is the window in which a contacted item is not messaged again.
func (p Pipeline) Cooldown() time.Duration {
	return time.Duration(p.CooldownDays) * 24 * time.Hour
}

// Timeout is the per-request timeout for the collaborator.
func (c Collaborator) Timeout() time.Duration { return seconds(c.TimeoutSeconds) }

// TTL is the cache entry lifetime.
func (c Cache) TTL() time.Duration { return seconds(c.TTLSeconds) }

// Open is how long a tripped breaker rejects calls before probing.
func (b Breaker) Open() time.Duration { return seconds(b.OpenSeconds) }

func seconds(v int) time.Duration {
	return time.Duration(v) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
