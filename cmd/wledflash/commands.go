package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/wledflash/internal/config"
	"github.com/muurk/wledflash/internal/discovery"
	"github.com/muurk/wledflash/internal/ui"
)

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing config file")
}

// loadConfig reads the config file and applies the global flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Discovery.Timeout = time.Duration(scanWindow) * time.Second
	}
	return cfg, nil
}

// scanCmd lists devices without touching them
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List WLED devices on the network",
	Long: `Listen for WLED mDNS advertisements and list the devices found.

Nothing is sent to the devices. This is the same discovery the flash run
uses, so a device missing here will not be flashed without --ip.`,
	Example: `  # Default 3 second window
  wledflash scan

  # Longer window for busy networks
  wledflash scan --timeout 10`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanning for WLED devices (%s)...\n\n", cfg.Discovery.Timeout)

	devices, err := cfg.Scanner().ScanForDevices(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	printDevices(out, devices)
	return nil
}

// printDevices lists discovered devices with their advertised metadata
func printDevices(out io.Writer, devices []*discovery.Device) {
	if len(devices) == 0 {
		fmt.Fprintln(out, "No devices found.")
		fmt.Fprintln(out, "\nTroubleshooting:")
		fmt.Fprintln(out, "  - Ensure the devices are powered on and joined to this network")
		fmt.Fprintln(out, "  - mDNS does not cross routers or VLANs")
		fmt.Fprintln(out, "  - Try increasing --timeout for slower networks")
		fmt.Fprintln(out, "  - Use --ip to specify addresses manually")
		return
	}

	fmt.Fprintf(out, "Found %d device(s):\n\n", len(devices))
	for i, d := range devices {
		fmt.Fprintf(out, "%d. %s\n", i+1, d)
		fmt.Fprintf(out, "   Hostname: %s\n", d.Hostname)
		fmt.Fprintf(out, "   Address:  %s\n", d.BaseURL())
		if mac := d.MAC(); mac != "" {
			fmt.Fprintf(out, "   MAC:      %s\n", mac)
		}
		if len(d.Metadata) > 0 {
			fmt.Fprintf(out, "   Metadata: %v\n", d.Metadata)
		}
		fmt.Fprintln(out)
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	Long: fmt.Sprintf(`Manage the wledflash configuration file.

The file holds retry counts, timeouts, the baseline state and the fleet
concurrency limit. Command line flags override its values.

Default location: %s`, defaultConfigPath()),
}

var forceInit bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default values",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolvedConfigPath()
		if err != nil {
			return err
		}

		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to check config file: %w", err)
		}

		if err := config.NewConfig().Save(path); err != nil {
			return err
		}

		ui.NewPrinter(cmd.OutOrStdout()).PrintResult(
			ui.NewSuccessResult("Config file written", ui.Param{Key: "Path", Value: path}))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func resolvedConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

func defaultConfigPath() string {
	path, err := config.GetConfigPath()
	if err != nil {
		return "unknown"
	}
	return path
}
