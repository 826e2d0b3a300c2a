package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/muurk/wledflash/internal/fleet"
	"github.com/muurk/wledflash/internal/ota"
)

var phaseStartText = map[fleet.Phase]string{
	fleet.PhaseUpload:    "sending firmware",
	fleet.PhaseReboot:    "waiting for the device to come back",
	fleet.PhaseInfo:      "reading firmware version",
	fleet.PhaseConfigure: "applying baseline",
	fleet.PhaseVerify:    "reading state back",
}

// Narrator prints one line per pipeline event, prefixed with the device
// address. Workers call it concurrently; lines are never interleaved.
type Narrator struct {
	mu  sync.Mutex
	out io.Writer
}

var _ fleet.Observer = (*Narrator)(nil)

// NewNarrator creates a narrator writing to w, or os.Stdout if w is nil
func NewNarrator(w io.Writer) *Narrator {
	if w == nil {
		w = os.Stdout
	}
	return &Narrator{out: w}
}

// Say prints a free-form line for addr
func (n *Narrator) Say(addr, format string, args ...interface{}) {
	n.line(addr, "", fmt.Sprintf(format, args...))
}

// PhaseStarted implements fleet.Observer
func (n *Narrator) PhaseStarted(addr string, phase fleet.Phase) {
	text, ok := phaseStartText[phase]
	if !ok {
		text = "started"
	}
	n.line(addr, string(phase), StepRunningStyle.Render(StepMarkerRunning)+" "+text)
}

// PhaseFinished implements fleet.Observer
func (n *Narrator) PhaseFinished(addr string, phase fleet.Phase, ok bool, detail string) {
	marker := StepCompleteStyle.Render(SuccessMarker)
	if !ok {
		marker = ErrorTitleStyle.Render(FailureMarker)
	}
	n.line(addr, string(phase), marker+" "+detail)
}

// DeviceFinished implements fleet.Observer
func (n *Narrator) DeviceFinished(r fleet.DeviceResult) {
	n.line(r.Address, "done", fmt.Sprintf("%s (%s)", DeviceVerdict(r), r.Duration.Round(100*time.Millisecond)))
}

func (n *Narrator) line(addr, phase, text string) {
	prefix := AddressStyle.Render("[" + addr + "]")
	if phase != "" {
		prefix += " " + PhaseStyle.Render(phase+":")
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.out, "%s %s\n", prefix, text)
}

// DeviceVerdict is a short description of a device's final state
func DeviceVerdict(r fleet.DeviceResult) string {
	switch {
	case r.Err != "":
		return "failed with an internal error"
	case r.Configured:
		return "flashed and configured"
	case r.Flashed && !r.Rebooted:
		return "flashed, did not come back"
	case r.Flashed:
		return "flashed, not configured"
	default:
		return "not flashed: " + OutcomeText(r)
	}
}

// OutcomeText describes the upload outcome of a device for the operator
func OutcomeText(r fleet.DeviceResult) string {
	switch r.Outcome {
	case ota.OutcomeSuccess:
		if r.Fallbacks > 0 {
			return fmt.Sprintf("accepted via fallback field, attempt %d", r.Attempts)
		}
		return fmt.Sprintf("accepted, attempt %d", r.Attempts)
	case ota.OutcomeUnreachable:
		return "device unreachable"
	case ota.OutcomeFatal:
		return "firmware file not found"
	default:
		return "device did not accept the firmware"
	}
}
