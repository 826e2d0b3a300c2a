package fleet

import (
	"context"
	"errors"
	"time"

	"github.com/muurk/wledflash/internal/wled"
)

// Inspector reads back information from a device after it rebooted. Its
// results are reported but never change Flashed or Configured.
type Inspector interface {
	// FirmwareVersion returns the version the device is running
	FirmwareVersion(ctx context.Context, addr string) (string, error)

	// VerifyBaseline reports whether the device state matches baseline.
	// detail describes a mismatch or a read failure.
	VerifyBaseline(ctx context.Context, addr string, baseline wled.Baseline) (ok bool, detail string)
}

// WLEDInspector reads /json/info over HTTP and the state over the /ws
// websocket
type WLEDInspector struct {
	// Timeout bounds the info request
	Timeout time.Duration

	// Verification controls state read-back retries
	Verification *wled.VerificationOptions

	// NewClient builds the client for an address; defaults to
	// wled.NewClientForAddr
	NewClient func(addr string) *wled.Client
}

// NewWLEDInspector returns an inspector with default timeouts
func NewWLEDInspector() *WLEDInspector {
	return &WLEDInspector{
		Timeout:      5 * time.Second,
		Verification: wled.DefaultVerificationOptions(),
	}
}

func (i *WLEDInspector) client(addr string) *wled.Client {
	if i.NewClient != nil {
		return i.NewClient(addr)
	}
	return wled.NewClientForAddr(addr)
}

// FirmwareVersion implements Inspector
func (i *WLEDInspector) FirmwareVersion(ctx context.Context, addr string) (string, error) {
	info, err := i.client(addr).Info(ctx, i.Timeout)
	if err != nil {
		return "", err
	}
	if info.Version == "" {
		return "", errors.New("device did not report a version")
	}
	return info.Version, nil
}

// VerifyBaseline implements Inspector
func (i *WLEDInspector) VerifyBaseline(ctx context.Context, addr string, baseline wled.Baseline) (bool, string) {
	result := i.client(addr).VerifyState(ctx, baseline, i.Verification)
	if result.Success {
		return true, ""
	}
	if result.Error != nil {
		return false, wled.GetShortErrorMessage(result.Error)
	}
	return false, "state does not match"
}
