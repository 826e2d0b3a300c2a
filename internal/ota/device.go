package ota

import (
	"context"
	"time"

	"github.com/muurk/wledflash/internal/wled"
)

// Device is the subset of the WLED client the update protocol drives.
// *wled.Client satisfies it.
type Device interface {
	Probe(ctx context.Context, timeout time.Duration) bool
	UploadFirmware(ctx context.Context, path, field string, timeout time.Duration) (*wled.UploadResponse, error)
	SetState(ctx context.Context, state *wled.State, timeout time.Duration) (*wled.StateResponse, error)
}

// DeviceFactory returns a Device for an address
type DeviceFactory func(addr string) Device

// NewWLEDDevice is the default DeviceFactory: a WLED client on port 80
// unless addr carries a port
func NewWLEDDevice(addr string) Device {
	return wled.NewClientForAddr(addr)
}

func deviceFor(factory DeviceFactory, addr string) Device {
	if factory == nil {
		factory = NewWLEDDevice
	}
	return factory(addr)
}

// sleepInContext waits for d, returning early with ctx.Err() when ctx is done
func sleepInContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
