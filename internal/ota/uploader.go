package ota

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wledflash/internal/logging"
	"github.com/muurk/wledflash/internal/wled"
)

// Policy holds the retry and timeout settings for firmware uploads
type Policy struct {
	// MaxAttempts is the number of probe+upload attempts per device
	MaxAttempts int

	// RetryBackoff is the fixed pause between attempts
	RetryBackoff time.Duration

	// UploadTimeout bounds each firmware POST, including the response
	UploadTimeout time.Duration

	// ProbeTimeout bounds the reachability check before each attempt
	ProbeTimeout time.Duration
}

// DefaultPolicy returns the upload policy used when nothing is configured
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   2,
		RetryBackoff:  2 * time.Second,
		UploadTimeout: wled.DefaultUploadTimeout,
		ProbeTimeout:  5 * time.Second,
	}
}

// UploadReport summarises one device upload
type UploadReport struct {
	Outcome Outcome

	// Attempts is the number of attempts started
	Attempts int

	// Calls is the number of firmware POSTs issued, never more than
	// two per attempt
	Calls int

	// Fallbacks is the number of POSTs made with the alternate field name
	Fallbacks int
}

// Uploader runs the bounded-retry firmware upload against one device at a
// time. It holds no per-device state and is safe for concurrent use.
type Uploader struct {
	Policy  Policy
	Devices DeviceFactory
}

// NewUploader creates an uploader for real WLED devices
func NewUploader(policy Policy) *Uploader {
	return &Uploader{Policy: policy, Devices: NewWLEDDevice}
}

// Upload sends image to the device at addr.
//
// Each attempt probes the device, POSTs the image with the "update" field and,
// when the device answers 200 with an unrecognised body, POSTs again with the
// "file" field. Any 200 to the "file" POST is success. A missing image returns
// OutcomeFatal on the first attempt without contacting the device.
func (u *Uploader) Upload(ctx context.Context, addr string, image Image) UploadReport {
	report := UploadReport{Outcome: OutcomeAmbiguousFailure}

	if err := image.Check(); err != nil {
		logging.Error("Firmware not readable", zap.String("ip", addr), zap.Error(err))
		report.Outcome = OutcomeFatal
		report.Attempts = 1
		return report
	}

	policy := u.Policy
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	dev := deviceFor(u.Devices, addr)
	lastUnreachable := false

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepInContext(ctx, policy.RetryBackoff); err != nil {
				logging.Warn("Upload retries interrupted", zap.String("ip", addr), zap.Error(err))
				break
			}
		}
		report.Attempts = attempt

		if !dev.Probe(ctx, policy.ProbeTimeout) {
			logging.Warn("Device unreachable before upload",
				zap.String("ip", addr),
				zap.Int("attempt", attempt),
			)
			lastUnreachable = true
			continue
		}
		lastUnreachable = false

		verdict, fatal := u.post(ctx, dev, addr, image, wled.FieldUpdate, attempt, &report)
		if fatal {
			report.Outcome = OutcomeFatal
			return report
		}
		if verdict == VerdictAmbiguous {
			verdict, fatal = u.post(ctx, dev, addr, image, wled.FieldFile, attempt, &report)
			if fatal {
				report.Outcome = OutcomeFatal
				return report
			}
			report.Fallbacks++
			// Last resort field: any 200 means the device took the image
			if verdict == VerdictAmbiguous {
				verdict = VerdictSuccess
			}
		}
		if verdict == VerdictSuccess {
			report.Outcome = OutcomeSuccess
			return report
		}
	}

	if lastUnreachable {
		report.Outcome = OutcomeUnreachable
	}
	return report
}

// post issues one firmware POST and classifies it. fatal is true when the
// image disappeared from disk; no request is made in that case.
func (u *Uploader) post(ctx context.Context, dev Device, addr string, image Image, field string, attempt int, report *UploadReport) (verdict Verdict, fatal bool) {
	resp, err := dev.UploadFirmware(ctx, image.Path, field, u.Policy.UploadTimeout)
	if errors.Is(err, wled.ErrFirmwareNotFound) {
		logging.Error("Firmware disappeared during upload", zap.String("ip", addr), zap.Error(err))
		return VerdictFailed, true
	}
	report.Calls++

	if resp == nil {
		resp = &wled.UploadResponse{}
	}
	logging.LogUploadAttempt(addr, attempt, field, resp.StatusCode, resp.Body, err)

	verdict = Classify(resp, err)
	logging.LogClassification(addr, attempt, field, verdict.String())
	return verdict, false
}
