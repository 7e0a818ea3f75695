package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"outreach/internal/config"
	"outreach/internal/queue"
	"outreach/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *queue.Store
	configPath string
	collab     *fakeCollaborators
}

// fakeCollaborators serves every collaborator API from one httptest server.
type fakeCollaborators struct {
	mu       sync.Mutex
	server   *httptest.Server
	searches int
	scores   int
	messages []map[string]any
	results  []map[string]any
}

func (f *fakeCollaborators) handler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/search":
		f.searches++
		_ = json.NewEncoder(w).Encode(map[string]any{"results": f.results})
	case "/score":
		f.scores++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"url":     r.URL.Query().Get("url"),
			"score":   45,
			"signals": map[string]bool{"https": false},
		})
	case "/contacts":
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "contact-1"})
	case "/messages":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.messages = append(f.messages, body)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": fmt.Sprintf("msg-%d", len(f.messages))})
	case "/calls":
		_ = json.NewEncoder(w).Encode(map[string]string{"call_id": "call-1"})
	default:
		http.NotFound(w, r)
	}
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{config.EnvConfig, config.EnvDataDir, config.EnvRedisURL, config.EnvCRMBaseURL, config.EnvBizSearchURL, config.EnvSiteScoreURL, config.EnvVoiceBaseURL} {
		t.Setenv(key, "")
	}

	collab := &fakeCollaborators{}
	collab.server = httptest.NewServer(http.HandlerFunc(collab.handler))
	t.Cleanup(collab.server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithCollaborators(collab.server.URL))
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		store:      testsupport.MustOpenStore(t, cfg),
		configPath: configPath,
		collab:     collab,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\ndata_dir = %q\n\n", cfg.Paths.DataDir)
	for _, section := range []string{"crm", "voice", "bizsearch", "sitescore"} {
		fmt.Fprintf(&b, "[%s]\nbase_url = %q\n\n", section, cfg.CRM.BaseURL)
	}
	fmt.Fprintf(&b, "[logging]\nformat = \"json\"\noutput_paths = [%q]\n", cfg.Logging.OutputPaths[0])
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
