package ota

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wledflash/internal/logging"
)

// RebootWaiter polls a device until it answers again after a firmware update
type RebootWaiter struct {
	// Timeout is the overall polling deadline
	Timeout time.Duration

	// PollInterval is the pause between probes
	PollInterval time.Duration

	// ProbeTimeout bounds each probe
	ProbeTimeout time.Duration

	// SettleDelay is waited after the first successful probe so the
	// device can finish starting its services
	SettleDelay time.Duration

	// InitialDelay is waited before the first probe. It counts against
	// Timeout.
	InitialDelay time.Duration

	Devices DeviceFactory
}

// DefaultRebootWaiter returns the waiter used when nothing is configured
func DefaultRebootWaiter() *RebootWaiter {
	return &RebootWaiter{
		Timeout:      60 * time.Second,
		PollInterval: 2 * time.Second,
		ProbeTimeout: 2 * time.Second,
		SettleDelay:  5 * time.Second,
		Devices:      NewWLEDDevice,
	}
}

// AwaitReboot returns true once the device answers a probe, after waiting
// SettleDelay. It returns false if no probe succeeds before Timeout elapses.
func (w *RebootWaiter) AwaitReboot(ctx context.Context, addr string) bool {
	dev := deviceFor(w.Devices, addr)
	deadline := time.Now().Add(w.Timeout)

	pollCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	logging.LogPhase(addr, "reboot", "waiting", zap.Duration("timeout", w.Timeout))

	if err := sleepInContext(pollCtx, w.InitialDelay); err != nil {
		logging.Warn("Device did not come back online", zap.String("ip", addr), zap.Duration("timeout", w.Timeout))
		return false
	}

	interval := w.PollInterval
	if interval <= 0 {
		interval = time.Second
	}

	for probes := 1; ; probes++ {
		probeTimeout := w.ProbeTimeout
		if remaining := time.Until(deadline); probeTimeout <= 0 || probeTimeout > remaining {
			probeTimeout = remaining
		}

		if probeTimeout > 0 && dev.Probe(pollCtx, probeTimeout) {
			logging.LogPhase(addr, "reboot", "online", zap.Int("probes", probes))
			// The device is back; an interrupted settle does not change that
			_ = sleepInContext(ctx, w.SettleDelay)
			return true
		}

		if !time.Now().Add(interval).Before(deadline) {
			break
		}
		if err := sleepInContext(pollCtx, interval); err != nil {
			break
		}
	}

	logging.Warn("Device did not come back online", zap.String("ip", addr), zap.Duration("timeout", w.Timeout))
	return false
}
