package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the pulsectl configuration file. Flags override it, and
// PULSECTL_* environment variables override both file and defaults.
type Config struct {
	Server     string        `yaml:"server"`
	CookieFile string        `yaml:"cookie_file"`
	Timeout    time.Duration `yaml:"timeout"`
	Output     string        `yaml:"output"`

	Log   LogConfig   `yaml:"log"`
	Serve ServeConfig `yaml:"serve"`
	NATS  NATSConfig  `yaml:"nats"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServeConfig struct {
	Listen string `yaml:"listen"`
	// RateLimit is the number of mutating requests per second.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

func defaultConfig() Config {
	return Config{
		Timeout: 5 * time.Second,
		Output:  "text",
		Log:     LogConfig{Level: "warn", Format: "text"},
		Serve:   ServeConfig{Listen: "127.0.0.1:4714", RateLimit: 20, Burst: 10},
		NATS:    NATSConfig{SubjectPrefix: "pulse.events"},
	}
}

// defaultConfigPath returns $XDG_CONFIG_HOME/pulsectl/config.yaml.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "pulsectl", "config.yaml")
}

// loadConfig reads path on top of the defaults and applies the environment.
// A missing file is only an error if the path was given explicitly.
func loadConfig(path string, explicit bool, getenv func(string) string) (Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return cfg, err
		}
	}
	return cfg, cfg.applyEnv(getenv)
}

// override replaces every field that is set in flags.
func (c *Config) override(flags Config) {
	str := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	str(&c.Server, flags.Server)
	str(&c.CookieFile, flags.CookieFile)
	str(&c.Output, flags.Output)
	str(&c.Log.Level, flags.Log.Level)
	str(&c.Log.Format, flags.Log.Format)
	str(&c.Serve.Listen, flags.Serve.Listen)
	str(&c.NATS.URL, flags.NATS.URL)
	str(&c.NATS.SubjectPrefix, flags.NATS.SubjectPrefix)
	if flags.Timeout != 0 {
		c.Timeout = flags.Timeout
	}
	if flags.Serve.RateLimit != 0 {
		c.Serve.RateLimit = flags.Serve.RateLimit
	}
	if flags.Serve.Burst != 0 {
		c.Serve.Burst = flags.Serve.Burst
	}
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	str("PULSECTL_SERVER", &c.Server)
	str("PULSECTL_COOKIE_FILE", &c.CookieFile)
	str("PULSECTL_OUTPUT", &c.Output)
	str("PULSECTL_LOG_LEVEL", &c.Log.Level)
	str("PULSECTL_LOG_FORMAT", &c.Log.Format)
	str("PULSECTL_LISTEN", &c.Serve.Listen)
	str("PULSECTL_NATS_URL", &c.NATS.URL)
	if v := getenv("PULSECTL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PULSECTL_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := getenv("PULSECTL_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("PULSECTL_RATE_LIMIT: %w", err)
		}
		c.Serve.RateLimit = f
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Output {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q", c.Output)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Serve.RateLimit <= 0 || c.Serve.Burst <= 0 {
		return errors.New("serve.rate_limit and serve.burst must be positive")
	}
	return nil
}
