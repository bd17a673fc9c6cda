package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// GlobalFlags are the persistent CLI flags merged into Settings.
type GlobalFlags struct {
	ConfigPath     string
	Plain          bool
	EnableCommands string
	Timeout        string
	Retries        int
	QuoteURL       string
	VenueFile      string
	LogLevel       string
}

// Settings is the fully resolved runtime configuration: defaults, then the
// YAML file, then environment, then flags, in increasing precedence.
type Settings struct {
	OutputMode          string
	EnableCommands      []string
	Timeout             time.Duration
	Retries             int
	QuoteServiceURL     string
	VenueFilePath       string
	ReferenceFeePercent float64
	// ReferenceFeeSet distinguishes an explicit config value from the
	// built-in default, so a venue file's own reference fee is not
	// clobbered by the default.
	ReferenceFeeSet bool
	BudgetDBPath        string
	BudgetLockPath      string
	RecordDBPath        string
	RecordLockPath      string
	LogLevel            string
	LogEncoding         string
}

type fileConfig struct {
	Output  string `yaml:"output"`
	Timeout string `yaml:"timeout"`
	Retries *int   `yaml:"retries"`
	Routing struct {
		QuoteServiceURL     string   `yaml:"quote_service_url"`
		VenueFile           string   `yaml:"venue_file"`
		ReferenceFeePercent *float64 `yaml:"reference_fee_percent"`
	} `yaml:"routing"`
	Storage struct {
		BudgetsPath     string `yaml:"budgets_path"`
		BudgetsLockPath string `yaml:"budgets_lock_path"`
		RecordsPath     string `yaml:"records_path"`
		RecordsLockPath string `yaml:"records_lock_path"`
	} `yaml:"storage"`
	Log struct {
		Level    string `yaml:"level"`
		Encoding string `yaml:"encoding"`
	} `yaml:"log"`
}

const (
	EnvQuoteServiceURL = "DEFI_ROUTER_QUOTE_URL"
	EnvVenueFile       = "DEFI_ROUTER_VENUE_FILE"
	EnvLogLevel        = "DEFI_ROUTER_LOG_LEVEL"
)

func Load(flags GlobalFlags) (Settings, error) {
	settings, err := defaultSettings()
	if err != nil {
		return Settings{}, err
	}

	cfgPath, err := resolveConfigPath(flags.ConfigPath)
	if err != nil {
		return Settings{}, err
	}
	if err := applyFileConfig(cfgPath, &settings); err != nil {
		return Settings{}, err
	}

	applyEnv(&settings)

	if err := applyFlags(flags, &settings); err != nil {
		return Settings{}, err
	}

	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}
	if settings.Retries < 0 {
		settings.Retries = 0
	}
	if settings.ReferenceFeePercent <= 0 {
		settings.ReferenceFeePercent = 0.1
	}
	return settings, nil
}

func defaultSettings() (Settings, error) {
	dataDir, err := defaultDataDir()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		OutputMode:          "json",
		Timeout:             10 * time.Second,
		Retries:             1,
		ReferenceFeePercent: 0.1,
		BudgetDBPath:        filepath.Join(dataDir, "budgets.db"),
		BudgetLockPath:      filepath.Join(dataDir, "budgets.lock"),
		RecordDBPath:        filepath.Join(dataDir, "records.db"),
		RecordLockPath:      filepath.Join(dataDir, "records.lock"),
		LogLevel:            "info",
		LogEncoding:         "json",
	}, nil
}

func defaultDataDir() (string, error) {
	if custom := strings.TrimSpace(os.Getenv("DEFI_ROUTER_DATA_DIR")); custom != "" {
		return custom, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".defi-router"), nil
}

func resolveConfigPath(override string) (string, error) {
	if strings.TrimSpace(override) != "" {
		return strings.TrimSpace(override), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", nil
	}
	candidate := filepath.Join(home, ".defi-router", "config.yaml")
	if _, err := os.Stat(candidate); err != nil {
		return "", nil
	}
	return candidate, nil
}

func applyFileConfig(path string, settings *Settings) error {
	if path == "" {
		return nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var raw fileConfig
	if err := yaml.Unmarshal(buf, &raw); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if raw.Output != "" {
		settings.OutputMode = raw.Output
	}
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("parse timeout in config file: %w", err)
		}
		settings.Timeout = d
	}
	if raw.Retries != nil {
		settings.Retries = *raw.Retries
	}
	if raw.Routing.QuoteServiceURL != "" {
		settings.QuoteServiceURL = raw.Routing.QuoteServiceURL
	}
	if raw.Routing.VenueFile != "" {
		settings.VenueFilePath = raw.Routing.VenueFile
	}
	if raw.Routing.ReferenceFeePercent != nil {
		settings.ReferenceFeePercent = *raw.Routing.ReferenceFeePercent
		settings.ReferenceFeeSet = true
	}
	if raw.Storage.BudgetsPath != "" {
		settings.BudgetDBPath = raw.Storage.BudgetsPath
	}
	if raw.Storage.BudgetsLockPath != "" {
		settings.BudgetLockPath = raw.Storage.BudgetsLockPath
	}
	if raw.Storage.RecordsPath != "" {
		settings.RecordDBPath = raw.Storage.RecordsPath
	}
	if raw.Storage.RecordsLockPath != "" {
		settings.RecordLockPath = raw.Storage.RecordsLockPath
	}
	if raw.Log.Level != "" {
		settings.LogLevel = raw.Log.Level
	}
	if raw.Log.Encoding != "" {
		settings.LogEncoding = raw.Log.Encoding
	}
	return nil
}

func applyEnv(settings *Settings) {
	if v := strings.TrimSpace(os.Getenv(EnvQuoteServiceURL)); v != "" {
		settings.QuoteServiceURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvVenueFile)); v != "" {
		settings.VenueFilePath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		settings.LogLevel = v
	}
}

func applyFlags(flags GlobalFlags, settings *Settings) error {
	if flags.Plain {
		settings.OutputMode = "plain"
	}
	if strings.TrimSpace(flags.EnableCommands) != "" {
		parts := strings.Split(flags.EnableCommands, ",")
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				settings.EnableCommands = append(settings.EnableCommands, trimmed)
			}
		}
	}
	if strings.TrimSpace(flags.Timeout) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(flags.Timeout))
		if err != nil {
			return fmt.Errorf("parse --timeout: %w", err)
		}
		settings.Timeout = d
	}
	if flags.Retries >= 0 {
		settings.Retries = flags.Retries
	}
	if strings.TrimSpace(flags.QuoteURL) != "" {
		settings.QuoteServiceURL = strings.TrimSpace(flags.QuoteURL)
	}
	if strings.TrimSpace(flags.VenueFile) != "" {
		settings.VenueFilePath = strings.TrimSpace(flags.VenueFile)
	}
	if strings.TrimSpace(flags.LogLevel) != "" {
		settings.LogLevel = strings.TrimSpace(flags.LogLevel)
	}
	return nil
}
