package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything a report run needs from the outside world.
type Config struct {
	Region  string  `yaml:"region"`
	Report  Report  `yaml:"report"`
	Daemon  Daemon  `yaml:"daemon,omitempty"`
	History History `yaml:"history,omitempty"`
}

// Report configures where the artifact goes and who hears about it.
type Report struct {
	Bucket    string   `yaml:"bucket"`
	EmailFrom string   `yaml:"email_from"`
	EmailTo   []string `yaml:"email_to"`
}

// Daemon configures interval mode.
type Daemon struct {
	Interval    time.Duration `yaml:"interval"`
	MetricsAddr string        `yaml:"metrics_addr"`
}

// History configures the local run-history store.
type History struct {
	Path string `yaml:"path"`
}

// Load reads configuration from path, then applies environment overrides.
// An empty path yields a config built from the environment alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyEnv overlays the environment variables the Lambda-era deployment set.
func (c *Config) applyEnv() {
	if v := os.Getenv("AWS_REGION"); v != "" && c.Region == "" {
		c.Region = v
	}
	if v := os.Getenv("REPORT_S3_BUCKET"); v != "" {
		c.Report.Bucket = v
	}
	if v := os.Getenv("EMAIL_FROM"); v != "" {
		c.Report.EmailFrom = v
	}
	if v := os.Getenv("EMAIL_TO"); v != "" {
		c.Report.EmailTo = splitRecipients(v)
	}
}

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	if c.Daemon.Interval == 0 {
		c.Daemon.Interval = 24 * time.Hour
	}
	if c.Daemon.MetricsAddr == "" {
		c.Daemon.MetricsAddr = ":9090"
	}
	if c.History.Path == "" {
		c.History.Path = os.TempDir() + "/vahti"
	}
}

// Validate ensures the config can drive a full run.
func (c *Config) Validate() error {
	if c.Report.Bucket == "" {
		return fmt.Errorf("report bucket is required")
	}
	if c.Report.EmailFrom == "" {
		return fmt.Errorf("report email_from is required")
	}
	if len(c.Report.EmailTo) == 0 {
		return fmt.Errorf("report email_to is required")
	}
	return nil
}

func splitRecipients(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
