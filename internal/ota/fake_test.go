package ota

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/muurk/wledflash/internal/wled"
)

// scriptedUpload is one canned reply to a firmware POST
type scriptedUpload struct {
	resp *wled.UploadResponse
	err  error
}

func reply(status int, body string) scriptedUpload {
	return scriptedUpload{resp: &wled.UploadResponse{StatusCode: status, Body: body, RequestSent: true}}
}

// fakeDevice replays scripted probe and upload results. When a script runs
// out, its last entry repeats.
type fakeDevice struct {
	mu sync.Mutex

	probes  []bool
	uploads []scriptedUpload

	stateResp *wled.StateResponse
	stateErr  error

	probeCalls int
	fields     []string
	states     []*wled.State
}

func (f *fakeDevice) Probe(ctx context.Context, timeout time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.probeCalls
	f.probeCalls++
	if len(f.probes) == 0 {
		return true
	}
	if i >= len(f.probes) {
		i = len(f.probes) - 1
	}
	return f.probes[i]
}

func (f *fakeDevice) UploadFirmware(ctx context.Context, path, field string, timeout time.Duration) (*wled.UploadResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.fields)
	f.fields = append(f.fields, field)
	if len(f.uploads) == 0 {
		return &wled.UploadResponse{StatusCode: 200, RequestSent: true}, nil
	}
	if i >= len(f.uploads) {
		i = len(f.uploads) - 1
	}
	return f.uploads[i].resp, f.uploads[i].err
}

func (f *fakeDevice) SetState(ctx context.Context, state *wled.State, timeout time.Duration) (*wled.StateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, state)
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	if f.stateResp == nil {
		return &wled.StateResponse{}, nil
	}
	return f.stateResp, nil
}

func (f *fakeDevice) factory() DeviceFactory {
	return func(string) Device { return f }
}

// writeImage creates a firmware file and returns an Image for it
func writeImage(t *testing.T) Image {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wled.bin")
	if err := os.WriteFile(path, []byte("firmware"), 0o600); err != nil {
		t.Fatalf("failed to write firmware: %v", err)
	}
	return Image{Path: path}
}

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts:   attempts,
		RetryBackoff:  time.Millisecond,
		UploadTimeout: 2 * time.Second,
		ProbeTimeout:  time.Second,
	}
}
