package fleet

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wledflash/internal/logging"
	"github.com/muurk/wledflash/internal/ota"
	"github.com/muurk/wledflash/internal/wled"
)

// Orchestrator runs the flash-and-recover pipeline on many devices at once.
//
// Each device gets its own worker. Workers share nothing mutable; the only
// shared input is the read-only firmware image. A device failing, hanging
// until its timeouts, or crashing never affects another device's result.
type Orchestrator struct {
	Uploader     *ota.Uploader
	Waiter       *ota.RebootWaiter
	Configurator *ota.Configurator

	// Inspector, if set, reads the firmware version after reboot and
	// performs state verification
	Inspector Inspector

	// Baseline is pushed to every device that comes back
	Baseline wled.Baseline

	// Configure enables the baseline push
	Configure bool

	// Verify reads the state back after configuration; needs Inspector
	Verify bool

	// Concurrency bounds the number of devices in flight; 0 runs every
	// device at once
	Concurrency int

	// Observer receives progress events; may be nil
	Observer Observer
}

// New returns an orchestrator wired to real WLED devices with default timeouts
func New() *Orchestrator {
	return &Orchestrator{
		Uploader:     ota.NewUploader(ota.DefaultPolicy()),
		Waiter:       ota.DefaultRebootWaiter(),
		Configurator: ota.DefaultConfigurator(),
		Inspector:    NewWLEDInspector(),
		Baseline:     wled.DefaultBaseline(),
		Configure:    true,
	}
}

func (o *Orchestrator) observer() Observer {
	if o.Observer == nil {
		return NopObserver{}
	}
	return o.Observer
}

type indexedResult struct {
	index  int
	result DeviceResult
}

// Run flashes every address and blocks until all workers have returned.
// Results are in the same order as addrs. Run never fails as a whole;
// per-device failures are in the results.
func (o *Orchestrator) Run(ctx context.Context, addrs []string, image ota.Image) []DeviceResult {
	results := make([]DeviceResult, len(addrs))
	if len(addrs) == 0 {
		return results
	}

	var sem chan struct{}
	if o.Concurrency > 0 && o.Concurrency < len(addrs) {
		sem = make(chan struct{}, o.Concurrency)
	}

	out := make(chan indexedResult, len(addrs))
	var wg sync.WaitGroup

	for i, addr := range addrs {
		wg.Add(1)
		go func(i int, addr string) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			out <- indexedResult{index: i, result: o.runDevice(ctx, addr, image)}
		}(i, addr)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	for r := range out {
		results[r.index] = r.result
	}
	return results
}

// runDevice is one worker. It always returns a result, even if a phase panics.
func (o *Orchestrator) runDevice(ctx context.Context, addr string, image ota.Image) (result DeviceResult) {
	start := time.Now()
	obs := o.observer()
	result = DeviceResult{Address: addr, Outcome: ota.OutcomeAmbiguousFailure}

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Sprintf("worker panic: %v", r)
			logging.Error("Device worker crashed",
				zap.String("ip", addr),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
		result.Duration = time.Since(start)
		logging.LogDeviceResult(addr, result.Flashed, result.Configured, result.Outcome.String(), result.Duration)
		obs.DeviceFinished(result)
	}()

	// Upload
	obs.PhaseStarted(addr, PhaseUpload)
	report := o.Uploader.Upload(ctx, addr, image)
	result.Outcome = report.Outcome
	result.Attempts = report.Attempts
	result.Calls = report.Calls
	result.Fallbacks = report.Fallbacks
	obs.PhaseFinished(addr, PhaseUpload, report.Outcome == ota.OutcomeSuccess, uploadDetail(report))
	if report.Outcome != ota.OutcomeSuccess {
		return result
	}
	result.Flashed = true

	// Reboot
	obs.PhaseStarted(addr, PhaseReboot)
	back := o.Waiter.AwaitReboot(ctx, addr)
	detail := "back online"
	if !back {
		detail = fmt.Sprintf("not back within %s", o.Waiter.Timeout)
	}
	obs.PhaseFinished(addr, PhaseReboot, back, detail)
	if !back {
		return result
	}
	result.Rebooted = true

	// Firmware version
	if o.Inspector != nil {
		obs.PhaseStarted(addr, PhaseInfo)
		version, err := o.Inspector.FirmwareVersion(ctx, addr)
		if err != nil {
			logging.Warn("Firmware version not read",
				zap.String("ip", addr),
				zap.String("kind", wled.ErrorKind(err)),
				zap.Error(err),
			)
			obs.PhaseFinished(addr, PhaseInfo, false, wled.GetShortErrorMessage(err))
		} else {
			result.FirmwareVersion = version
			obs.PhaseFinished(addr, PhaseInfo, true, version)
		}
	}

	if !o.Configure {
		return result
	}

	// Baseline
	obs.PhaseStarted(addr, PhaseConfigure)
	result.Configured = o.Configurator.Configure(ctx, addr, o.Baseline)
	detail = "baseline applied"
	if !result.Configured {
		detail = "baseline rejected"
	}
	obs.PhaseFinished(addr, PhaseConfigure, result.Configured, detail)

	if result.Configured && o.Verify && o.Inspector != nil {
		obs.PhaseStarted(addr, PhaseVerify)
		ok, detail := o.Inspector.VerifyBaseline(ctx, addr, o.Baseline)
		result.Verified = ok
		result.VerifyDetail = detail
		if ok {
			detail = "state matches"
		}
		obs.PhaseFinished(addr, PhaseVerify, ok, detail)
	}

	return result
}

func uploadDetail(r ota.UploadReport) string {
	switch r.Outcome {
	case ota.OutcomeSuccess:
		if r.Fallbacks > 0 {
			return fmt.Sprintf("accepted via fallback field (attempt %d)", r.Attempts)
		}
		return fmt.Sprintf("accepted (attempt %d)", r.Attempts)
	case ota.OutcomeUnreachable:
		return fmt.Sprintf("unreachable after %d attempts", r.Attempts)
	case ota.OutcomeFatal:
		return "firmware file not found"
	default:
		return fmt.Sprintf("not accepted after %d attempts", r.Attempts)
	}
}
