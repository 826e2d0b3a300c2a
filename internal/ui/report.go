package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/muurk/wledflash/internal/fleet"
	"github.com/muurk/wledflash/internal/ota"
	"github.com/muurk/wledflash/internal/urls"
)

// ReportOptions selects which optional phases were part of the run
type ReportOptions struct {
	Inspect   bool // firmware version read after reboot
	Configure bool
	Verify    bool
}

// Step numbers of the device report
const (
	stepUpload = iota + 1
	stepReboot
	stepInfo
	stepConfigure
	stepVerify
)

// DeviceProgress builds the step list of one finished device
func DeviceProgress(r fleet.DeviceResult, opts ReportOptions) *Progress {
	p := NewProgress(r.Address,
		"Upload firmware",
		"Wait for reboot",
		"Read firmware version",
		"Apply baseline",
		"Verify state",
	)

	if r.Flashed {
		p.CompleteStep(stepUpload, OutcomeText(r))
	} else {
		p.FailStep(stepUpload, OutcomeText(r))
	}

	switch {
	case !r.Flashed:
		p.SkipStep(stepReboot, "")
	case r.Rebooted:
		p.CompleteStep(stepReboot, "")
	default:
		p.FailStep(stepReboot, "did not come back")
	}

	switch {
	case !opts.Inspect || !r.Rebooted:
		p.SkipStep(stepInfo, "")
	case r.FirmwareVersion != "":
		p.CompleteStep(stepInfo, r.FirmwareVersion)
	default:
		// Best effort; an unreadable version is not a failure
		p.SkipStep(stepInfo, "not reported")
	}

	switch {
	case !opts.Configure:
		p.SkipStep(stepConfigure, "disabled")
	case !r.Rebooted:
		p.SkipStep(stepConfigure, "")
	case r.Configured:
		p.CompleteStep(stepConfigure, "")
	default:
		p.FailStep(stepConfigure, "rejected")
	}

	switch {
	case !opts.Verify || !r.Configured:
		p.SkipStep(stepVerify, "")
	case r.Verified:
		p.CompleteStep(stepVerify, "")
	default:
		p.FailStep(stepVerify, r.VerifyDetail)
	}

	if r.Err != "" {
		// A crashed worker stops where it was; mark the first step that
		// did not finish
		for i := range p.Steps {
			if p.Steps[i].Status == StepFailed || p.Steps[i].Status == StepSkipped {
				p.FailStep(i+1, "internal error")
				break
			}
		}
	}

	p.ShowBar = false
	return p
}

// SummaryResult builds the fleet-level result box
func SummaryResult(results []fleet.DeviceResult, opts ReportOptions) *Result {
	s := fleet.Summarize(results)

	if s.Total == 0 {
		r := NewWarningResult("No devices to update")
		r.Troubleshooting = []string{
			"Check that the devices are powered and on this network",
			"mDNS does not cross routers; use --ip for devices on other subnets",
			"Increase the discovery window with --timeout",
		}
		return r
	}

	details := []Param{
		{Key: "Devices", Value: fmt.Sprintf("%d", s.Total)},
		{Key: "Flashed", Value: fmt.Sprintf("%d", s.Flashed)},
		{Key: "Failed", Value: fmt.Sprintf("%d", s.Failed)},
	}
	if opts.Configure {
		details = append(details, Param{Key: "Configured", Value: fmt.Sprintf("%d", s.Configured)})
	}
	if opts.Verify {
		details = append(details, Param{Key: "Verified", Value: fmt.Sprintf("%d", s.Verified)})
	}
	if n := s.ByOutcome[ota.OutcomeUnreachable]; n > 0 {
		details = append(details, Param{Key: "Unreachable", Value: fmt.Sprintf("%d", n)})
	}
	if failed := addresses(results, func(r fleet.DeviceResult) bool { return !r.Flashed }); failed != "" {
		details = append(details, Param{Key: "Not flashed", Value: failed})
	}
	if opts.Configure {
		unconfigured := addresses(results, func(r fleet.DeviceResult) bool { return r.Flashed && !r.Configured })
		if unconfigured != "" {
			details = append(details, Param{Key: "Not configured", Value: unconfigured})
		}
	}

	switch {
	case s.Failed == 0 && (!opts.Configure || s.Unconfigured() == 0):
		return NewSuccessResult("All devices updated", details...)
	case s.Flashed == 0:
		r := NewFailureResult("No device was updated", errors.New(failureReason(s)), troubleshooting(s))
		r.Details = details
		return r
	default:
		done := s.Flashed
		if opts.Configure {
			done = s.Configured
		}
		r := NewWarningResult(fmt.Sprintf("%d of %d devices need attention", s.Total-done, s.Total), details...)
		r.Troubleshooting = troubleshooting(s)
		return r
	}
}

func addresses(results []fleet.DeviceResult, match func(fleet.DeviceResult) bool) string {
	var out []string
	for _, r := range results {
		if match(r) {
			out = append(out, r.Address)
		}
	}
	return strings.Join(out, ", ")
}

func failureReason(s fleet.Summary) string {
	if s.ByOutcome[ota.OutcomeFatal] > 0 {
		return "firmware file not found"
	}
	if s.ByOutcome[ota.OutcomeUnreachable] == s.Total {
		return "no device was reachable"
	}
	return "devices did not accept the firmware"
}

func troubleshooting(s fleet.Summary) []string {
	var tips []string
	if s.ByOutcome[ota.OutcomeUnreachable] > 0 {
		tips = append(tips, "Unreachable devices may be offline or on another subnet")
	}
	if s.ByOutcome[ota.OutcomeAmbiguousFailure] > 0 {
		tips = append(tips, "Check that the firmware build matches the device (ESP8266 or ESP32): "+urls.WLEDReleases)
	}
	if s.Unconfigured() > 0 {
		tips = append(tips, "Devices that were flashed but not configured can be rerun with --ip")
	}
	return tips
}
