// Package wlconfig loads the ambient knobs that sit outside the protocol
// state itself: default log level, the poll adapter's wait granularity,
// and the clipboard idle timeout. Protocol state is never config-driven —
// only these ambient settings are.
package wlconfig

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultIdleTimeout  = 5 * time.Second
	defaultPollInterval = time.Second
	defaultLogLevel     = "info"
)

// Config is the optional file at $XDG_CONFIG_HOME/wlgo/config.yaml (or its
// platform equivalent). Every field has a sane zero-value default.
type Config struct {
	LogLevel            string `yaml:"log_level"`
	ClipboardIdleSeconds int   `yaml:"clipboard_idle_seconds"`
	PollIntervalMillis  int    `yaml:"poll_interval_millis"`
}

// Load reads the config file if present, then applies environment
// overrides, then fills in defaults for anything still unset. A missing
// file is not an error — every caller gets usable defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	path, err := configPath()
	if err == nil {
		if data, readErr := os.ReadFile(path); readErr == nil {
			if yamlErr := yaml.Unmarshal(data, cfg); yamlErr != nil {
				return nil, yamlErr
			}
		}
	}

	applyEnvironmentOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

// IdleTimeout is the configured clipboard pipe-receive idle timeout.
// datatransfer.Receive does not read it; it uses its own fixed
// datatransfer.IdleTimeout.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.ClipboardIdleSeconds) * time.Second
}

// PollInterval is the configured maximum blocking wait for a poll
// adapter. wlctl does not read it; its session builds its Poll with a
// fixed 200ms wait.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMillis) * time.Millisecond
}

func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "wlgo", "config.yaml"), nil
}

func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv("WLGO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("WLGO_CLIPBOARD_IDLE_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.ClipboardIdleSeconds = parsed
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.ClipboardIdleSeconds == 0 {
		cfg.ClipboardIdleSeconds = int(defaultIdleTimeout / time.Second)
	}
	if cfg.PollIntervalMillis == 0 {
		cfg.PollIntervalMillis = int(defaultPollInterval / time.Millisecond)
	}
}
