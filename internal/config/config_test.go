package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"ADDR", "LOG_DIR", "TARGETS_FILE", "PROBE_TIMEOUT", "IDLE_DELAY", "FEED_INTERVAL", "CONCURRENCY"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()
	if cfg.Addr != "127.0.0.1:8080" {
		t.Fatalf("default addr wrong: %q", cfg.Addr)
	}
	if cfg.ProbeTimeout != 10*time.Second || cfg.IdleDelay != 10*time.Second {
		t.Fatalf("default durations wrong: %+v", cfg)
	}
	if cfg.FeedInterval != 5*time.Second {
		t.Fatalf("default feed interval wrong: %v", cfg.FeedInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("PROBE_TIMEOUT", "3s")
	t.Setenv("CONCURRENCY", "4")
	t.Setenv("FEED_INTERVAL", "1s")

	cfg := FromEnv()
	if cfg.Addr != ":9090" || cfg.ProbeTimeout != 3*time.Second || cfg.Concurrency != 4 || cfg.FeedInterval != time.Second {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Config{Addr: "", ProbeTimeout: 0, IdleDelay: time.Second, FeedInterval: time.Second, Concurrency: 0}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("invalid config should not validate")
	}
	msg := err.Error()
	for _, want := range []string{"addr", "probe timeout", "concurrency"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error should mention %q, got: %v", want, msg)
		}
	}
}

func TestLoadSeedTargets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.yaml")
	content := `targets:
  - name: Example
    url: https://example.com
    interval: 45s
  - url: https://other.example.com
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	targets, err := LoadSeedTargets(path)
	if err != nil {
		t.Fatalf("LoadSeedTargets: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("want 2 targets, got %d", len(targets))
	}
	if targets[0].Name != "Example" || targets[0].Interval.Duration != 45*time.Second {
		t.Fatalf("first target wrong: %+v", targets[0])
	}
	// defaults for omitted fields
	if targets[1].Name != "https://other.example.com" || targets[1].Interval.Duration != 30*time.Second {
		t.Fatalf("defaults not applied: %+v", targets[1])
	}
}

func TestLoadSeedTargets_Errors(t *testing.T) {
	if _, err := LoadSeedTargets(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing file should error")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("targets:\n  - name: NoURL\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadSeedTargets(path); err == nil || !strings.Contains(err.Error(), "url is required") {
		t.Fatalf("want url-required error, got %v", err)
	}
}
