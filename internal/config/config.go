package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr           string        // API bind address, e.g., "127.0.0.1:8080" (local) or ":8080" (Docker)
	LogDir         string        // logs directory
	TargetsFile    string        // optional YAML file of targets to register at startup
	ProbeTimeout   time.Duration // per-probe HTTP timeout
	IdleDelay      time.Duration // scheduler sleep when no targets exist
	FeedInterval   time.Duration // snapshot broadcast period
	Concurrency    int           // max in-flight probes per cycle
	RateLimitRPS   float64       // API rate limit, requests per second per client
	RateLimitBurst int
}

func FromEnv() Config {
	cfg := Config{
		Addr:           "127.0.0.1:8080",
		LogDir:         "logs",
		ProbeTimeout:   10 * time.Second,
		IdleDelay:      10 * time.Second,
		FeedInterval:   5 * time.Second,
		Concurrency:    16,
		RateLimitRPS:   5,
		RateLimitBurst: 10,
	}

	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv("TARGETS_FILE"); v != "" {
		cfg.TargetsFile = v
	}
	if v := os.Getenv("PROBE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ProbeTimeout = d
		}
	}
	if v := os.Getenv("IDLE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.IdleDelay = d
		}
	}
	if v := os.Getenv("FEED_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.FeedInterval = d
		}
	}
	if v := os.Getenv("CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Concurrency = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitBurst = n
		}
	}
	return cfg
}

// Validate reports every problem at once rather than the first one hit.
func (c Config) Validate() error {
	var err error
	if c.Addr == "" {
		err = multierr.Append(err, fmt.Errorf("addr must not be empty"))
	}
	if c.ProbeTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("probe timeout must be positive, got %v", c.ProbeTimeout))
	}
	if c.IdleDelay <= 0 {
		err = multierr.Append(err, fmt.Errorf("idle delay must be positive, got %v", c.IdleDelay))
	}
	if c.FeedInterval <= 0 {
		err = multierr.Append(err, fmt.Errorf("feed interval must be positive, got %v", c.FeedInterval))
	}
	if c.Concurrency < 1 {
		err = multierr.Append(err, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	return err
}

// Duration is a time.Duration that unmarshals from a YAML string like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// SeedTarget is one pre-registered target from the targets file.
type SeedTarget struct {
	Name     string   `yaml:"name"`
	URL      string   `yaml:"url"`
	Interval Duration `yaml:"interval"`
}

type seedFile struct {
	Targets []SeedTarget `yaml:"targets"`
}

// LoadSeedTargets reads the YAML targets file. Missing intervals default
// to 30s; entries without a URL are rejected.
func LoadSeedTargets(path string) ([]SeedTarget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading targets file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing targets file: %w", err)
	}

	var verr error
	for i := range f.Targets {
		t := &f.Targets[i]
		if t.URL == "" {
			verr = multierr.Append(verr, fmt.Errorf("targets[%d]: url is required", i))
			continue
		}
		if t.Interval.Duration <= 0 {
			t.Interval.Duration = 30 * time.Second
		}
		if t.Name == "" {
			t.Name = t.URL
		}
	}
	if verr != nil {
		return nil, verr
	}
	return f.Targets, nil
}
