// Wledflash updates the firmware of every WLED controller on the local
// network in one run.
//
// It discovers devices over mDNS (or takes addresses from --ip), uploads the
// firmware image to all of them concurrently, waits for each device to come
// back from its reboot and pushes a baseline state so the lights are left on
// in a known colour.
//
// Usage:
//
//	wledflash [flags]
//	wledflash scan
//	wledflash config init
//
// See 'wledflash --help' for available commands and flags.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/wledflash/internal/logging"
	"github.com/muurk/wledflash/internal/version"
)

func main() {
	// Ctrl-C stops waiting and sleeping; every device still reports a result
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
	scanWindow int
)

var rootCmd = &cobra.Command{
	Use:   "wledflash",
	Short: "Bulk firmware updater for WLED controllers",
	Long: `Update the firmware of many WLED controllers at once.

Devices are discovered over mDNS (_wled._tcp) unless --ip is given. Every
device is updated concurrently: the image is uploaded with a bounded number
of retries, the device is polled until it is back from its reboot, and a
baseline state (power, brightness, colour) is applied.

The exit status is 0 when the run completes, even if some devices failed.
Per-device results are printed at the end.`,
	Example: `  # Flash every WLED device on the network with ./wled.bin
  wledflash

  # See what would be flashed
  wledflash --dry-run

  # Flash two devices, no discovery, no prompt
  wledflash --ip 192.168.1.40 --ip 192.168.1.41 --firmware WLED_0.15.0_ESP32.bin --yes

  # Leave devices dim and white after the update
  wledflash --brightness 20 --color 255,255,255`,
	Version:       version.Get(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
	RunE: runFlash,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is the per-user config directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: $"+logging.LogLevelEnvVar+", silent if unset)")
	rootCmd.PersistentFlags().IntVar(&scanWindow, "timeout", 3, "mDNS discovery window in seconds")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "wledflash %s\n", version.Full())
	},
}
