package testsupport

import (
	"path/filepath"
	"testing"
	"time"

	"outreach/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with a unique temp data directory per
// test. Collaborator URLs are cleared so nothing reaches the network unless
// a test points them at an httptest server.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Logging.Format = "json"
	cfgVal.Logging.OutputPaths = []string{filepath.Join(base, "test.log")}
	cfgVal.CRM.BaseURL = ""
	cfgVal.Voice.BaseURL = ""
	cfgVal.BizSearch.BaseURL = ""
	cfgVal.SiteScore.BaseURL = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithMaxConcurrency overrides the call-stage concurrency cap.
func WithMaxConcurrency(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Orchestrator.MaxConcurrency = n
	}
}

// WithWarmup overrides the warmup window.
func WithWarmup(d time.Duration) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Orchestrator.WarmupSeconds = int(d / time.Second)
	}
}

// WithCollaborators points every collaborator at baseURL.
func WithCollaborators(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.CRM.BaseURL = baseURL
		b.cfg.Voice.BaseURL = baseURL
		b.cfg.BizSearch.BaseURL = baseURL
		b.cfg.SiteScore.BaseURL = baseURL
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
