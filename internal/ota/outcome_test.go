package ota

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/muurk/wledflash/internal/wled"
)

func TestClassify(t *testing.T) {
	sent := &wled.UploadResponse{RequestSent: true}
	notSent := &wled.UploadResponse{}

	tests := []struct {
		name string
		resp *wled.UploadResponse
		err  error
		want Verdict
	}{
		{"empty body", &wled.UploadResponse{StatusCode: 200}, nil, VerdictSuccess},
		{"whitespace body", &wled.UploadResponse{StatusCode: 200, Body: " \r\n"}, nil, VerdictSuccess},
		{"update successful", &wled.UploadResponse{StatusCode: 200, Body: "Update Successful! Rebooting..."}, nil, VerdictSuccess},
		{"success lower case", &wled.UploadResponse{StatusCode: 200, Body: "success"}, nil, VerdictSuccess},
		{"update mixed case", &wled.UploadResponse{StatusCode: 200, Body: "<html>UPDATE done</html>"}, nil, VerdictSuccess},
		{"plain OK", &wled.UploadResponse{StatusCode: 200, Body: "OK"}, nil, VerdictAmbiguous},
		{"html page", &wled.UploadResponse{StatusCode: 200, Body: "<html>WLED</html>"}, nil, VerdictAmbiguous},
		{"server error", &wled.UploadResponse{StatusCode: 500, Body: "Update failed"}, nil, VerdictFailed},
		{"not found", &wled.UploadResponse{StatusCode: 404}, nil, VerdictFailed},
		{"nil response", nil, nil, VerdictFailed},
		{"connection reset", sent, wled.NewNetworkError("x", &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", syscall.ECONNRESET)}, ""), VerdictSuccess},
		{"eof", sent, wled.NewNetworkError("x", io.EOF, ""), VerdictSuccess},
		{"timeout after send", sent, wled.NewNetworkError("x", context.DeadlineExceeded, ""), VerdictSuccess},
		{"timeout before send", notSent, wled.NewNetworkError("x", context.DeadlineExceeded, ""), VerdictFailed},
		{"refused", notSent, wled.NewNetworkError("x", &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, ""), VerdictFailed},
		{"firmware missing", notSent, fmt.Errorf("%w: wled.bin", wled.ErrFirmwareNotFound), VerdictFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.resp, tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestImageCheck(t *testing.T) {
	img := writeImage(t)
	if err := img.Check(); err != nil {
		t.Errorf("Check() error = %v", err)
	}

	missing := Image{Path: img.Path + ".missing"}
	if err := missing.Check(); !isFirmwareNotFound(err) {
		t.Errorf("Check() error = %v, want ErrFirmwareNotFound", err)
	}

	dir := Image{Path: t.TempDir()}
	if err := dir.Check(); !isFirmwareNotFound(err) {
		t.Errorf("Check() on a directory error = %v, want ErrFirmwareNotFound", err)
	}
}

func isFirmwareNotFound(err error) bool {
	return wled.GetShortErrorMessage(err) == "Firmware file not found"
}

func TestOutcomeString(t *testing.T) {
	tests := map[Outcome]string{
		OutcomeSuccess:          "success",
		OutcomeAmbiguousFailure: "ambiguous_failure",
		OutcomeUnreachable:      "unreachable",
		OutcomeFatal:            "fatal",
	}
	for o, want := range tests {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %s, want %s", int(o), got, want)
		}
	}
}
