package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/muurk/wledflash/internal/config"
	"github.com/muurk/wledflash/internal/discovery"
	"github.com/muurk/wledflash/internal/fleet"
	"github.com/muurk/wledflash/internal/logging"
	"github.com/muurk/wledflash/internal/metrics"
	"github.com/muurk/wledflash/internal/ota"
	"github.com/muurk/wledflash/internal/ui"
	"github.com/muurk/wledflash/internal/wled"
)

// Flash run flags
var (
	dryRun       bool
	firmwarePath string
	targetIPs    []string
	concurrency  int
	assumeYes    bool
	metricsFile  string
	verifyState  bool
	noConfigure  bool
	brightness   int
	colorFlag    string
	powerOn      bool
)

func init() {
	f := rootCmd.Flags()
	f.BoolVar(&dryRun, "dry-run", false, "Discover and list devices without flashing")
	f.StringVar(&firmwarePath, "firmware", "wled.bin", "Firmware image to upload")
	f.StringSliceVar(&targetIPs, "ip", nil, "Device address (host or host:port) to flash, skipping discovery (repeatable)")
	f.IntVar(&concurrency, "concurrency", 0, "Maximum devices updated at once (0 = all)")
	f.BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation (never asked when stdin is not a terminal)")
	f.StringVar(&metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this file")
	f.BoolVar(&verifyState, "verify", false, "Read the state back over the websocket after configuring")
	f.BoolVar(&noConfigure, "no-configure", false, "Do not apply the baseline state after flashing")
	f.IntVar(&brightness, "brightness", 64, "Baseline brightness (0-255)")
	f.StringVar(&colorFlag, "color", "50,20,110", "Baseline colour as r,g,b")
	f.BoolVar(&powerOn, "power", true, "Baseline power state")
}

// applyFlashFlags overrides config values with the flags that were set
func applyFlashFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("concurrency") {
		cfg.Fleet.Concurrency = concurrency
	}
	if flags.Changed("verify") {
		cfg.Configure.Verify = verifyState
	}
	if noConfigure {
		cfg.Configure.Enabled = false
	}
	if flags.Changed("brightness") {
		cfg.Baseline.Brightness = brightness
	}
	if flags.Changed("power") {
		cfg.Baseline.Power = powerOn
	}
	if flags.Changed("color") {
		color, err := wled.ParseRGB(colorFlag)
		if err != nil {
			return fmt.Errorf("invalid --color: %w", err)
		}
		cfg.Baseline.Color = color.Triplet()
	}

	return cfg.Validate()
}

func runFlash(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyFlashFlags(cmd, cfg); err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	printer := ui.NewPrinter(out)
	narrator := ui.NewNarrator(out)

	if dryRun {
		return runDryRun(cmd, cfg)
	}

	// Targets
	var addrs []string
	if len(targetIPs) > 0 {
		addrs = manualTargets(targetIPs)
	} else {
		scanner := cfg.Scanner()
		scanner.OnFound = func(d *discovery.Device) {
			narrator.Say(d.IP, "found %s", d)
		}
		printer.Printf("Discovering WLED devices (%s)...\n", cfg.Discovery.Timeout)
		addrs, err = scanner.Discover(ctx, cfg.Discovery.Timeout)
		if err != nil {
			return fmt.Errorf("discovery failed: %w", err)
		}
		printer.Newline()
	}

	image := ota.Image{Path: firmwarePath}
	baseline := cfg.BaselineState()
	opts := ui.ReportOptions{
		Inspect:   true,
		Configure: cfg.Configure.Enabled,
		Verify:    cfg.Configure.Enabled && cfg.Configure.Verify,
	}

	printer.PrintHeader(ui.NewHeader("WLED firmware update", strings.TrimSpace(cmd.CommandPath()+" "+strings.Join(flagArgs(cmd), " ")),
		ui.Param{Key: "Firmware", Value: firmwarePath},
		ui.Param{Key: "Devices", Value: fmt.Sprintf("%d", len(addrs))},
		ui.Param{Key: "Baseline", Value: baselineText(cfg.Configure.Enabled, baseline)},
		ui.Param{Key: "Concurrency", Value: concurrencyText(cfg.Fleet.Concurrency, len(addrs))},
	))

	if len(addrs) == 0 {
		printer.PrintResult(ui.SummaryResult(nil, opts))
		return nil
	}

	if len(addrs) > 1 && !assumeYes {
		in := cmd.InOrStdin()
		if !ui.IsInteractive(in) {
			// Unattended runs (cron, CI, pipes) flash like --yes
			printer.Println("Input is not a terminal, flashing without confirmation.")
			printer.Newline()
		} else if !ui.ConfirmFlash(in, out, firmwarePath, len(addrs)) {
			return nil
		}
	}

	recorder := metrics.NewRecorder()
	orchestrator := fleet.New()
	orchestrator.Uploader = ota.NewUploader(cfg.UploadPolicy())
	orchestrator.Waiter = cfg.RebootWaiter()
	orchestrator.Configurator = cfg.Configurator()
	orchestrator.Baseline = baseline
	orchestrator.Configure = cfg.Configure.Enabled
	orchestrator.Verify = cfg.Configure.Verify
	orchestrator.Concurrency = cfg.Fleet.Concurrency
	orchestrator.Observer = fleet.Observers{narrator, recorder}

	logging.Info("Starting fleet update",
		zap.String("firmware", firmwarePath),
		zap.Int("devices", len(addrs)),
		zap.Int("concurrency", cfg.Fleet.Concurrency),
	)

	results := orchestrator.Run(ctx, addrs, image)

	printer.Newline()
	printer.PrintReport(results, opts)

	if metricsFile != "" {
		if err := recorder.WriteTextfile(metricsFile); err != nil {
			return err
		}
	}

	// Per-device failures are in the report; the run itself succeeded
	return nil
}

func runDryRun(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()

	if len(targetIPs) > 0 {
		addrs := manualTargets(targetIPs)
		fmt.Fprintf(out, "Dry run: %d device(s) given with --ip, nothing will be flashed:\n\n", len(addrs))
		for _, addr := range addrs {
			fmt.Fprintf(out, "  %s\n", addr)
		}
	} else {
		fmt.Fprintf(out, "Dry run: scanning for WLED devices (%s), nothing will be flashed...\n\n", cfg.Discovery.Timeout)
		devices, err := cfg.Scanner().ScanForDevices(cmd.Context())
		if err != nil {
			return fmt.Errorf("discovery failed: %w", err)
		}
		printDevices(out, devices)
	}

	if err := (ota.Image{Path: firmwarePath}).Check(); err != nil {
		fmt.Fprintf(out, "\nWarning: %s\n", wled.GetShortErrorMessage(err))
	}
	return nil
}

// manualTargets dedupes and orders addresses given on the command line
func manualTargets(ips []string) []string {
	c := discovery.NewCollector()
	for _, ip := range ips {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			c.Add(&discovery.Device{IP: ip, Hostname: ip, Port: wled.DefaultPort})
		}
	}
	return c.Addresses()
}

// flagArgs lists the flags that were set, for the header
func flagArgs(cmd *cobra.Command) []string {
	var set []string
	cmd.Flags().Visit(func(f *pflag.Flag) {
		set = append(set, "--"+f.Name+"="+f.Value.String())
	})
	return set
}

func baselineText(enabled bool, b wled.Baseline) string {
	if !enabled {
		return "not applied"
	}
	power := "off"
	if b.Power {
		power = "on"
	}
	return fmt.Sprintf("power %s, brightness %d, colour %s", power, b.Brightness, b.Color)
}

func concurrencyText(limit, devices int) string {
	if limit <= 0 || limit >= devices {
		return "all at once"
	}
	return fmt.Sprintf("%d at a time", limit)
}
