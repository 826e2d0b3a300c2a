package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/muurk/wledflash/internal/wled"
)

const (
	appName    = "wledflash"
	configFile = "config.yaml"
)

// ErrConfig is wrapped by every error caused by the content of a config file
var ErrConfig = errors.New("invalid configuration")

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/wledflash or $HOME/.config/wledflash
//   - macOS: $HOME/.config/wledflash
//   - Windows: %LOCALAPPDATA%\wledflash
func GetConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appName), nil
		}
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(userProfile, "AppData", "Local", appName), nil

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil

	default:
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			return filepath.Join(xdgConfigHome, appName), nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil
	}
}

// GetConfigPath returns the full path to the default configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load reads the configuration from path, or from GetConfigPath when path
// is empty. A missing file is not an error: the defaults are returned.
// Values absent from the file keep their defaults. The result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	fileMutex.Lock()
	data, err := os.ReadFile(path)
	fileMutex.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return NewConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates a configuration document
func Parse(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the flasher cannot use.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Version == CurrentVersion, "unsupported config version %d (want %d)", c.Version, CurrentVersion)

	check(c.Discovery.Service != "", "discovery.service must not be empty")
	check(c.Discovery.Timeout > 0, "discovery.timeout must be positive, got %s", c.Discovery.Timeout)

	check(c.Upload.MaxAttempts > 0, "upload.max_attempts must be positive, got %d", c.Upload.MaxAttempts)
	check(c.Upload.RetryBackoff >= 0, "upload.retry_backoff must not be negative, got %s", c.Upload.RetryBackoff)
	check(c.Upload.Timeout > 0, "upload.timeout must be positive, got %s", c.Upload.Timeout)
	check(c.Upload.ProbeTimeout > 0, "upload.probe_timeout must be positive, got %s", c.Upload.ProbeTimeout)

	check(c.Reboot.Timeout > 0, "reboot.timeout must be positive, got %s", c.Reboot.Timeout)
	check(c.Reboot.PollInterval > 0, "reboot.poll_interval must be positive, got %s", c.Reboot.PollInterval)
	check(c.Reboot.ProbeTimeout > 0, "reboot.probe_timeout must be positive, got %s", c.Reboot.ProbeTimeout)
	check(c.Reboot.SettleDelay >= 0, "reboot.settle_delay must not be negative, got %s", c.Reboot.SettleDelay)
	check(c.Reboot.InitialDelay >= 0, "reboot.initial_delay must not be negative, got %s", c.Reboot.InitialDelay)

	check(c.Configure.Timeout > 0, "configure.timeout must be positive, got %s", c.Configure.Timeout)

	check(c.Fleet.Concurrency >= 0, "fleet.concurrency must not be negative, got %d", c.Fleet.Concurrency)

	if color, err := wled.RGBFromSlice(c.Baseline.Color); err != nil {
		errs = append(errs, fmt.Errorf("baseline.color: %w", err))
	} else {
		baseline := wled.Baseline{Power: c.Baseline.Power, Brightness: c.Baseline.Brightness, Color: color}
		for _, err := range wled.ValidateBaseline(baseline) {
			errs = append(errs, fmt.Errorf("baseline: %w", err))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrConfig, errors.Join(errs...))
}

// Marshal renders the configuration as YAML with a header comment
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# wledflash configuration file
# Durations use Go syntax (e.g. 500ms, 2s, 1m). Command line flags
# override the values below.

`)
	return append(header, data...), nil
}

// Save writes the configuration to path, or to GetConfigPath when path is
// empty, creating the directory if needed.
// Performs an atomic write to prevent corruption on crash.
func (c *Config) Save(path string) error {
	if path == "" {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write to temporary file first (atomic write)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}
