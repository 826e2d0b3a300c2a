package fleet

import (
	"time"

	"github.com/muurk/wledflash/internal/ota"
)

// DeviceResult is the outcome of the full pipeline for one device. It is
// written only by the worker that owns the device and is immutable once
// returned.
type DeviceResult struct {
	Address string

	// Flashed is true when the upload succeeded
	Flashed bool

	// Configured is true when the baseline was applied; never true unless
	// Flashed is
	Configured bool

	// Rebooted is true when the device answered again after the upload
	Rebooted bool

	// Upload details
	Outcome   ota.Outcome
	Attempts  int
	Calls     int
	Fallbacks int

	// FirmwareVersion is reported by the device after it rebooted, if it
	// could be read
	FirmwareVersion string

	// Verified is true when a read-back of the device state matched the
	// baseline. VerifyDetail describes a mismatch or read failure.
	Verified     bool
	VerifyDetail string

	// Err records a worker crash; the other fields hold whatever was known
	// at that point
	Err string

	Duration time.Duration
}

// Summary aggregates a fleet run
type Summary struct {
	Total      int
	Flashed    int
	Failed     int
	Configured int
	Verified   int

	// ByOutcome counts devices per upload outcome
	ByOutcome map[ota.Outcome]int
}

// Summarize counts results. Flashed+Failed always equals Total and
// Configured never exceeds Flashed.
func Summarize(results []DeviceResult) Summary {
	s := Summary{
		Total:     len(results),
		ByOutcome: make(map[ota.Outcome]int),
	}
	for _, r := range results {
		s.ByOutcome[r.Outcome]++
		if !r.Flashed {
			s.Failed++
			continue
		}
		s.Flashed++
		if r.Configured {
			s.Configured++
			if r.Verified {
				s.Verified++
			}
		}
	}
	return s
}

// Unconfigured is the number of flashed devices that did not take the baseline
func (s Summary) Unconfigured() int {
	return s.Flashed - s.Configured
}

// AllSucceeded reports whether every device was flashed and configured
func (s Summary) AllSucceeded() bool {
	return s.Failed == 0 && s.Configured == s.Total
}
