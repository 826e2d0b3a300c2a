package ota

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/muurk/wledflash/internal/wled"
)

// Image is a firmware file on local disk. It is shared read-only by all
// workers; every upload opens the file afresh.
type Image struct {
	Path string
}

// Check reports whether the image can be read. A missing file returns an
// error wrapping wled.ErrFirmwareNotFound.
func (i Image) Check() error {
	info, err := os.Stat(i.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", wled.ErrFirmwareNotFound, i.Path)
		}
		return fmt.Errorf("cannot read firmware %s: %w", i.Path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", wled.ErrFirmwareNotFound, i.Path)
	}
	return nil
}

// Outcome is the final result of uploading firmware to one device
type Outcome int

const (
	// OutcomeSuccess means the device accepted the image (or dropped the
	// connection in a way consistent with rebooting into it)
	OutcomeSuccess Outcome = iota
	// OutcomeAmbiguousFailure means every attempt ended without a
	// recognised acceptance
	OutcomeAmbiguousFailure
	// OutcomeUnreachable means the last attempt could not reach the device
	OutcomeUnreachable
	// OutcomeFatal means a local error (missing firmware) stopped the upload
	// before any request was made
	OutcomeFatal
)

// String returns the outcome name used in logs and metrics labels
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeAmbiguousFailure:
		return "ambiguous_failure"
	case OutcomeUnreachable:
		return "unreachable"
	case OutcomeFatal:
		return "fatal"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Verdict is the classification of a single upload request
type Verdict int

const (
	// VerdictSuccess means the device accepted the image
	VerdictSuccess Verdict = iota
	// VerdictAmbiguous means HTTP 200 with an unrecognised body; the
	// device may be expecting the other form field name
	VerdictAmbiguous
	// VerdictFailed means the request failed outright
	VerdictFailed
)

// String returns a short verdict name
func (v Verdict) String() string {
	switch v {
	case VerdictSuccess:
		return "success"
	case VerdictAmbiguous:
		return "ambiguous"
	case VerdictFailed:
		return "failed"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Classify interprets the result of one firmware POST.
//
// A device that accepts an image reboots immediately, often before or while
// answering, so an abrupt disconnect is read as success: connection reset,
// EOF, broken pipe, or a response timeout once the whole body was sent. A
// timeout before the body was sent, a refused connection and any non-200
// status are failures. A 200 is success when the body is empty or mentions
// "success" or "update"; any other 200 body is ambiguous.
func Classify(resp *wled.UploadResponse, err error) Verdict {
	if err != nil {
		switch {
		case errors.Is(err, wled.ErrFirmwareNotFound):
			return VerdictFailed
		case wled.IsConnectionDropped(err):
			return VerdictSuccess
		case wled.IsTimeout(err) && resp != nil && resp.RequestSent:
			return VerdictSuccess
		default:
			return VerdictFailed
		}
	}

	if resp == nil || resp.StatusCode != http.StatusOK {
		return VerdictFailed
	}

	body := strings.ToLower(strings.TrimSpace(resp.Body))
	if body == "" || strings.Contains(body, "success") || strings.Contains(body, "update") {
		return VerdictSuccess
	}
	return VerdictAmbiguous
}
