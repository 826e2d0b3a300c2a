package config

import (
	"time"

	"github.com/muurk/wledflash/internal/discovery"
	"github.com/muurk/wledflash/internal/ota"
	"github.com/muurk/wledflash/internal/wled"
)

// CurrentVersion is the config file schema version this build understands
const CurrentVersion = 1

// Config represents the entire configuration file.
// Every section is optional in the file; missing values keep their defaults.
type Config struct {
	Version   int              `yaml:"version"`
	Discovery *DiscoveryConfig `yaml:"discovery,omitempty"`
	Upload    *UploadConfig    `yaml:"upload,omitempty"`
	Reboot    *RebootConfig    `yaml:"reboot,omitempty"`
	Configure *ConfigureConfig `yaml:"configure,omitempty"`
	Baseline  *BaselineConfig  `yaml:"baseline,omitempty"`
	Fleet     *FleetConfig     `yaml:"fleet,omitempty"`
}

// DiscoveryConfig controls the mDNS browse
type DiscoveryConfig struct {
	Service string        `yaml:"service"` // DNS-SD service type (e.g., "_wled._tcp")
	Domain  string        `yaml:"domain"`  // Browse domain (e.g., "local.")
	Timeout time.Duration `yaml:"timeout"` // Listening window
}

// UploadConfig controls firmware upload retries
type UploadConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	Timeout      time.Duration `yaml:"timeout"`       // Per POST, including the response
	ProbeTimeout time.Duration `yaml:"probe_timeout"` // Reachability check before each attempt
}

// RebootConfig controls the wait for a device to come back after flashing
type RebootConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	SettleDelay  time.Duration `yaml:"settle_delay"`
	InitialDelay time.Duration `yaml:"initial_delay"`
}

// ConfigureConfig controls the post-reboot baseline push
type ConfigureConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
	Verify  bool          `yaml:"verify"` // Read the state back over the websocket
}

// BaselineConfig is the state pushed to every flashed device
type BaselineConfig struct {
	Power      bool  `yaml:"power"`
	Brightness int   `yaml:"brightness"`
	Color      []int `yaml:"color,flow"` // [r, g, b]
}

// FleetConfig controls how many devices are processed at once
type FleetConfig struct {
	Concurrency int `yaml:"concurrency"` // 0 means no limit
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	policy := ota.DefaultPolicy()
	waiter := ota.DefaultRebootWaiter()
	configurator := ota.DefaultConfigurator()
	baseline := wled.DefaultBaseline()

	return &Config{
		Version: CurrentVersion,
		Discovery: &DiscoveryConfig{
			Service: discovery.ServiceType,
			Domain:  discovery.ServiceDomain,
			Timeout: discovery.DefaultScanTimeout,
		},
		Upload: &UploadConfig{
			MaxAttempts:  policy.MaxAttempts,
			RetryBackoff: policy.RetryBackoff,
			Timeout:      policy.UploadTimeout,
			ProbeTimeout: policy.ProbeTimeout,
		},
		Reboot: &RebootConfig{
			Timeout:      waiter.Timeout,
			PollInterval: waiter.PollInterval,
			ProbeTimeout: waiter.ProbeTimeout,
			SettleDelay:  waiter.SettleDelay,
			InitialDelay: waiter.InitialDelay,
		},
		Configure: &ConfigureConfig{
			Enabled: true,
			Timeout: configurator.Timeout,
		},
		Baseline: &BaselineConfig{
			Power:      baseline.Power,
			Brightness: baseline.Brightness,
			Color:      []int{baseline.Color.R, baseline.Color.G, baseline.Color.B},
		},
		Fleet: &FleetConfig{},
	}
}

// fillDefaults replaces missing sections with their defaults
func (c *Config) fillDefaults() {
	def := NewConfig()
	if c.Version == 0 {
		c.Version = def.Version
	}
	if c.Discovery == nil {
		c.Discovery = def.Discovery
	}
	if c.Upload == nil {
		c.Upload = def.Upload
	}
	if c.Reboot == nil {
		c.Reboot = def.Reboot
	}
	if c.Configure == nil {
		c.Configure = def.Configure
	}
	if c.Baseline == nil {
		c.Baseline = def.Baseline
	}
	if c.Fleet == nil {
		c.Fleet = def.Fleet
	}
}

// UploadPolicy returns the uploader settings
func (c *Config) UploadPolicy() ota.Policy {
	return ota.Policy{
		MaxAttempts:   c.Upload.MaxAttempts,
		RetryBackoff:  c.Upload.RetryBackoff,
		UploadTimeout: c.Upload.Timeout,
		ProbeTimeout:  c.Upload.ProbeTimeout,
	}
}

// RebootWaiter returns a waiter for real devices using these settings
func (c *Config) RebootWaiter() *ota.RebootWaiter {
	return &ota.RebootWaiter{
		Timeout:      c.Reboot.Timeout,
		PollInterval: c.Reboot.PollInterval,
		ProbeTimeout: c.Reboot.ProbeTimeout,
		SettleDelay:  c.Reboot.SettleDelay,
		InitialDelay: c.Reboot.InitialDelay,
		Devices:      ota.NewWLEDDevice,
	}
}

// Configurator returns a configurator for real devices
func (c *Config) Configurator() *ota.Configurator {
	return &ota.Configurator{
		Timeout: c.Configure.Timeout,
		Devices: ota.NewWLEDDevice,
	}
}

// Scanner returns an mDNS scanner using the discovery settings
func (c *Config) Scanner() *discovery.Scanner {
	s := discovery.NewScanner()
	s.Service = c.Discovery.Service
	s.Domain = c.Discovery.Domain
	s.Timeout = c.Discovery.Timeout
	return s
}

// BaselineState returns the configured baseline state. Call Validate first;
// an invalid colour yields the zero colour.
func (c *Config) BaselineState() wled.Baseline {
	color, _ := wled.RGBFromSlice(c.Baseline.Color)
	return wled.Baseline{
		Power:      c.Baseline.Power,
		Brightness: c.Baseline.Brightness,
		Color:      color,
	}
}
