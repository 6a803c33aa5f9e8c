package wlconfig

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"WLGO_LOG_LEVEL", "WLGO_CLIPBOARD_IDLE_SECONDS", "XDG_CONFIG_HOME"} {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestLoadAppliesDefaultsWhenUnset(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir()) // no config.yaml present there

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.IdleTimeout() != 5*time.Second {
		t.Errorf("IdleTimeout() = %v, want 5s", cfg.IdleTimeout())
	}
	if cfg.PollInterval() != time.Second {
		t.Errorf("PollInterval() = %v, want 1s", cfg.PollInterval())
	}
}

func TestLoadEnvironmentOverridesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("WLGO_LOG_LEVEL", "debug")
	t.Setenv("WLGO_CLIPBOARD_IDLE_SECONDS", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.IdleTimeout() != 30*time.Second {
		t.Errorf("IdleTimeout() = %v, want 30s", cfg.IdleTimeout())
	}
}

func TestLoadReadsYAMLFileAndEnvStillOverridesIt(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(dir+"/wlgo", 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	yamlContent := "log_level: warn\nclipboard_idle_seconds: 12\npoll_interval_millis: 250\n"
	if err := os.WriteFile(dir+"/wlgo/config.yaml", []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn (from file)", cfg.LogLevel)
	}
	if cfg.PollInterval() != 250*time.Millisecond {
		t.Errorf("PollInterval() = %v, want 250ms (from file)", cfg.PollInterval())
	}

	t.Setenv("WLGO_LOG_LEVEL", "error")
	cfg2, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg2.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error (env overrides file)", cfg2.LogLevel)
	}
}
