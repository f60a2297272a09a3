package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
run:
  source_timeout_seconds: 120
http:
  timeout_seconds: 30
  user_agent: dash-agent
browser:
  nav_timeout_seconds: 60
  max_parallel: 2
  domain_qps: 1.0
vision:
  model: test-model
  max_tokens: 128
  api_key: secret
store:
  path: /tmp/out.json
artifacts:
  provider: local
  local_dir: /tmp/artifacts
history:
  enabled: true
  dsn: postgres://localhost/dash
notify:
  provider: pubsub
  project_id: proj
  topic_name: runs
server:
  port: 9090
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Run.SourceTimeoutSeconds != 120 {
		t.Errorf("source_timeout_seconds = %d, want 120", cfg.Run.SourceTimeoutSeconds)
	}
	if cfg.SourceTimeout() != 2*time.Minute {
		t.Errorf("SourceTimeout() = %v, want 2m", cfg.SourceTimeout())
	}
	if cfg.HTTP.UserAgent != "dash-agent" {
		t.Errorf("http.user_agent = %q, want dash-agent", cfg.HTTP.UserAgent)
	}
	if cfg.Browser.MaxParallel != 2 {
		t.Errorf("browser.max_parallel = %d, want 2", cfg.Browser.MaxParallel)
	}
	if cfg.Vision.Model != "test-model" {
		t.Errorf("vision.model = %q, want test-model", cfg.Vision.Model)
	}
	if cfg.Store.Path != "/tmp/out.json" {
		t.Errorf("store.path = %q", cfg.Store.Path)
	}
	if !cfg.History.Enabled || cfg.History.DSN == "" {
		t.Errorf("history not loaded: %+v", cfg.History)
	}
	if cfg.Notify.Provider != "pubsub" {
		t.Errorf("notify.provider = %q", cfg.Notify.Provider)
	}
	if cfg.Logging.Development {
		t.Error("logging.development should be false")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Run.SourceTimeoutSeconds != 180 {
		t.Errorf("default source timeout = %d, want 180", cfg.Run.SourceTimeoutSeconds)
	}
	if cfg.Vision.Endpoint == "" {
		t.Error("default vision endpoint should be set")
	}
	if cfg.Artifacts.Provider != "noop" {
		t.Errorf("default artifacts provider = %q, want noop", cfg.Artifacts.Provider)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "zero source timeout",
			mutate:  func(c *Config) { c.Run.SourceTimeoutSeconds = 0 },
			wantSub: "source_timeout_seconds",
		},
		{
			name:    "empty store path",
			mutate:  func(c *Config) { c.Store.Path = "" },
			wantSub: "store.path",
		},
		{
			name:    "unknown artifacts provider",
			mutate:  func(c *Config) { c.Artifacts.Provider = "s3" },
			wantSub: "artifacts provider",
		},
		{
			name:    "gcs without bucket",
			mutate:  func(c *Config) { c.Artifacts.Provider = "gcs"; c.Artifacts.GCSBucket = "" },
			wantSub: "gcs_bucket",
		},
		{
			name:    "history without dsn",
			mutate:  func(c *Config) { c.History.Enabled = true; c.History.DSN = "" },
			wantSub: "history.dsn",
		},
		{
			name:    "pubsub without topic",
			mutate:  func(c *Config) { c.Notify.Provider = "pubsub" },
			wantSub: "topic_name",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tc.mutate(&cfg)
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tc.wantSub)
			}
		})
	}
}
