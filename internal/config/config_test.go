package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DEFI_ROUTER_DATA_DIR", t.TempDir())

	settings, err := Load(GlobalFlags{Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.OutputMode != "json" {
		t.Fatalf("output mode = %q", settings.OutputMode)
	}
	if settings.Timeout != 10*time.Second {
		t.Fatalf("timeout = %s", settings.Timeout)
	}
	if settings.ReferenceFeePercent != 0.1 || settings.ReferenceFeeSet {
		t.Fatalf("reference fee = %f (set=%v)", settings.ReferenceFeePercent, settings.ReferenceFeeSet)
	}
	if settings.BudgetDBPath == "" || settings.RecordDBPath == "" {
		t.Fatalf("storage paths not derived: %+v", settings)
	}
	if settings.LogLevel != "info" || settings.LogEncoding != "json" {
		t.Fatalf("log defaults wrong: %+v", settings)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DEFI_ROUTER_DATA_DIR", t.TempDir())
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
output: plain
timeout: 30s
retries: 3
routing:
  quote_service_url: https://quotes.example.com
  reference_fee_percent: 0.25
log:
  level: debug
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	settings, err := Load(GlobalFlags{ConfigPath: cfgPath, Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.OutputMode != "plain" || settings.Timeout != 30*time.Second || settings.Retries != 3 {
		t.Fatalf("file overrides lost: %+v", settings)
	}
	if settings.QuoteServiceURL != "https://quotes.example.com" {
		t.Fatalf("quote url = %q", settings.QuoteServiceURL)
	}
	if settings.ReferenceFeePercent != 0.25 || !settings.ReferenceFeeSet {
		t.Fatalf("reference fee override lost: %+v", settings)
	}
	if settings.LogLevel != "debug" {
		t.Fatalf("file overrides lost: %+v", settings)
	}
}

func TestLoadFlagsBeatFileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DEFI_ROUTER_DATA_DIR", t.TempDir())
	t.Setenv(EnvQuoteServiceURL, "https://env.example.com")
	t.Setenv(EnvLogLevel, "warn")

	settings, err := Load(GlobalFlags{
		Retries:  5,
		QuoteURL: "https://flag.example.com",
		Timeout:  "3s",
		Plain:    true,
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.QuoteServiceURL != "https://flag.example.com" {
		t.Fatalf("flag should beat env, got %q", settings.QuoteServiceURL)
	}
	// Env still applies where no flag competes.
	if settings.LogLevel != "warn" {
		t.Fatalf("env log level lost: %q", settings.LogLevel)
	}
	if settings.Timeout != 3*time.Second || settings.Retries != 5 || settings.OutputMode != "plain" {
		t.Fatalf("flag overrides lost: %+v", settings)
	}
}

func TestLoadEnableCommands(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DEFI_ROUTER_DATA_DIR", t.TempDir())

	settings, err := Load(GlobalFlags{Retries: -1, EnableCommands: "route find, budget get ,"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(settings.EnableCommands) != 2 {
		t.Fatalf("enable commands = %v", settings.EnableCommands)
	}
	if settings.EnableCommands[0] != "route find" || settings.EnableCommands[1] != "budget get" {
		t.Fatalf("enable commands = %v", settings.EnableCommands)
	}
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DEFI_ROUTER_DATA_DIR", t.TempDir())
	if _, err := Load(GlobalFlags{Retries: -1, Timeout: "fast"}); err == nil {
		t.Fatal("expected error for unparseable timeout")
	}
}
