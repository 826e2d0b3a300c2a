package ota

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wledflash/internal/logging"
	"github.com/muurk/wledflash/internal/wled"
)

// Configurator pushes the baseline state to a freshly flashed device
type Configurator struct {
	// Timeout bounds the state request
	Timeout time.Duration

	Devices DeviceFactory
}

// DefaultConfigurator returns the configurator used when nothing is configured
func DefaultConfigurator() *Configurator {
	return &Configurator{
		Timeout: 10 * time.Second,
		Devices: NewWLEDDevice,
	}
}

// Configure POSTs baseline to the device's state endpoint. Any HTTP 200
// counts as applied, whatever the body says. An invalid baseline is rejected
// without contacting the device. Configure is idempotent.
func (c *Configurator) Configure(ctx context.Context, addr string, baseline wled.Baseline) bool {
	if errs := wled.ValidateBaseline(baseline); len(errs) > 0 {
		logging.Error("Invalid baseline", zap.String("ip", addr), zap.Errors("errors", errs))
		return false
	}

	dev := deviceFor(c.Devices, addr)
	resp, err := dev.SetState(ctx, baseline.ToState(), c.Timeout)
	if err != nil {
		logging.Warn("Configuration failed",
			zap.String("ip", addr),
			zap.String("kind", wled.ErrorKind(err)),
			zap.String("reason", wled.GetShortErrorMessage(err)),
			zap.Error(err),
		)
		return false
	}

	if resp.Confirmed() {
		logging.LogPhase(addr, "configure", "confirmed")
	} else {
		logging.LogPhase(addr, "configure", "unconfirmed")
	}
	return true
}
