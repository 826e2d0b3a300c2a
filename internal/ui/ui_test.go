package ui

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/muurk/wledflash/internal/fleet"
	"github.com/muurk/wledflash/internal/ota"
)

func TestHeaderRender(t *testing.T) {
	h := NewHeader("WLED firmware update", "wledflash --firmware wled.bin",
		Param{Key: "Firmware", Value: "wled.bin"},
		Param{Key: "Devices", Value: "3"},
	).SetWidth(80)

	out := h.Render()

	for _, want := range []string{"WLED FIRMWARE UPDATE", "wledflash --firmware wled.bin", "Firmware:", "wled.bin", "Devices:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Firmware:") > strings.Index(out, "Devices:") {
		t.Error("params should keep their order")
	}
}

func TestResultRender(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		want   []string
	}{
		{
			name:   "success",
			result: NewSuccessResult("All devices updated", Param{Key: "Flashed", Value: "3"}),
			want:   []string{"SUCCESS", "All devices updated", "Flashed:", "3"},
		},
		{
			name:   "warning",
			result: NewWarningResult("Check devices").AddDetail("Failed", "1"),
			want:   []string{"WARNING", "Check devices", "Failed:"},
		},
		{
			name:   "failure",
			result: NewFailureResult("No device was updated", errors.New("no device was reachable"), []string{"Check power"}),
			want:   []string{"FAILED", "Error: no device was reachable", "Troubleshooting:", "Check power"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.result.SetWidth(80).Render()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("Render() missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestNarrator(t *testing.T) {
	var buf bytes.Buffer
	n := NewNarrator(&buf)

	n.PhaseStarted("10.0.0.1", fleet.PhaseUpload)
	n.PhaseFinished("10.0.0.1", fleet.PhaseUpload, true, "accepted (attempt 1)")
	n.PhaseFinished("10.0.0.1", fleet.PhaseReboot, false, "not back within 1m0s")
	n.Say("10.0.0.1", "found %s", "wled-kitchen")
	n.DeviceFinished(fleet.DeviceResult{Address: "10.0.0.1", Flashed: true, Duration: 61 * time.Second})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5:\n%s", len(lines), buf.String())
	}

	tests := []struct {
		line int
		want []string
	}{
		{0, []string{"[10.0.0.1]", "upload:", "sending firmware"}},
		{1, []string{"[10.0.0.1]", "upload:", SuccessMarker, "accepted (attempt 1)"}},
		{2, []string{"reboot:", FailureMarker, "not back within 1m0s"}},
		{3, []string{"[10.0.0.1]", "found wled-kitchen"}},
		{4, []string{"done:", "flashed, did not come back", "1m1s"}},
	}
	for _, tt := range tests {
		for _, want := range tt.want {
			if !strings.Contains(lines[tt.line], want) {
				t.Errorf("line %d = %q, should contain %q", tt.line, lines[tt.line], want)
			}
		}
	}
}

func TestNarratorConcurrentLinesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	n := NewNarrator(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			addr := fmt.Sprintf("10.0.0.%d", i)
			for j := 0; j < 10; j++ {
				n.PhaseFinished(addr, fleet.PhaseUpload, true, "accepted")
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 200 {
		t.Fatalf("got %d lines, want 200", len(lines))
	}
	for _, line := range lines {
		if strings.Count(line, "[10.0.0.") != 1 || !strings.HasSuffix(line, "accepted") {
			t.Errorf("garbled line %q", line)
		}
	}
}

func TestDeviceVerdict(t *testing.T) {
	tests := []struct {
		name   string
		result fleet.DeviceResult
		want   string
	}{
		{"configured", fleet.DeviceResult{Flashed: true, Rebooted: true, Configured: true}, "flashed and configured"},
		{"not configured", fleet.DeviceResult{Flashed: true, Rebooted: true}, "flashed, not configured"},
		{"never back", fleet.DeviceResult{Flashed: true}, "flashed, did not come back"},
		{"unreachable", fleet.DeviceResult{Outcome: ota.OutcomeUnreachable}, "not flashed: device unreachable"},
		{"ambiguous", fleet.DeviceResult{Outcome: ota.OutcomeAmbiguousFailure}, "not flashed: device did not accept the firmware"},
		{"missing image", fleet.DeviceResult{Outcome: ota.OutcomeFatal}, "not flashed: firmware file not found"},
		{"crash", fleet.DeviceResult{Err: "worker panic: boom"}, "failed with an internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeviceVerdict(tt.result); got != tt.want {
				t.Errorf("DeviceVerdict() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeviceProgress(t *testing.T) {
	all := ReportOptions{Inspect: true, Configure: true, Verify: true}

	tests := []struct {
		name   string
		result fleet.DeviceResult
		opts   ReportOptions
		want   []StepStatus
	}{
		{
			name:   "full success",
			result: fleet.DeviceResult{Flashed: true, Rebooted: true, Configured: true, Verified: true, FirmwareVersion: "0.15.0", Outcome: ota.OutcomeSuccess, Attempts: 1},
			opts:   all,
			want:   []StepStatus{StepComplete, StepComplete, StepComplete, StepComplete, StepComplete},
		},
		{
			name:   "unreachable",
			result: fleet.DeviceResult{Outcome: ota.OutcomeUnreachable, Attempts: 2},
			opts:   all,
			want:   []StepStatus{StepFailed, StepSkipped, StepSkipped, StepSkipped, StepSkipped},
		},
		{
			name:   "never back",
			result: fleet.DeviceResult{Flashed: true, Outcome: ota.OutcomeSuccess},
			opts:   all,
			want:   []StepStatus{StepComplete, StepFailed, StepSkipped, StepSkipped, StepSkipped},
		},
		{
			name:   "config rejected",
			result: fleet.DeviceResult{Flashed: true, Rebooted: true, Outcome: ota.OutcomeSuccess},
			opts:   ReportOptions{Configure: true},
			want:   []StepStatus{StepComplete, StepComplete, StepSkipped, StepFailed, StepSkipped},
		},
		{
			name:   "verify mismatch",
			result: fleet.DeviceResult{Flashed: true, Rebooted: true, Configured: true, VerifyDetail: "bri: want 64, got 10", Outcome: ota.OutcomeSuccess},
			opts:   all,
			want:   []StepStatus{StepComplete, StepComplete, StepSkipped, StepComplete, StepFailed},
		},
		{
			name:   "configure disabled",
			result: fleet.DeviceResult{Flashed: true, Rebooted: true, Outcome: ota.OutcomeSuccess},
			opts:   ReportOptions{},
			want:   []StepStatus{StepComplete, StepComplete, StepSkipped, StepSkipped, StepSkipped},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DeviceProgress(tt.result, tt.opts)
			if len(p.Steps) != len(tt.want) {
				t.Fatalf("got %d steps, want %d", len(p.Steps), len(tt.want))
			}
			for i, want := range tt.want {
				if p.Steps[i].Status != want {
					t.Errorf("step %d (%s) status = %v, want %v", i+1, p.Steps[i].Name, p.Steps[i].Status, want)
				}
			}
		})
	}
}

func TestProgressRender(t *testing.T) {
	p := NewProgress("10.0.0.9", "Upload firmware", "Wait for reboot").SetWidth(80)
	p.CompleteStep(1, "attempt 1")
	p.StartStep(2, "")

	if got := p.Percent(); got != 0.5 {
		t.Errorf("Percent() = %v, want 0.5", got)
	}

	out := p.Render()
	for _, want := range []string{"10.0.0.9", "[1/2] Upload firmware", "(attempt 1)", "[2/2] Wait for reboot", " 50%"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}

	// Out of range steps are ignored
	p.CompleteStep(3, "")
	p.FailStep(0, "")
}

func TestSummaryResult(t *testing.T) {
	opts := ReportOptions{Configure: true}

	tests := []struct {
		name     string
		results  []fleet.DeviceResult
		wantType ResultType
		want     []string
	}{
		{
			name:     "empty fleet",
			results:  nil,
			wantType: ResultWarning,
			want:     []string{"No devices to update"},
		},
		{
			name: "all good",
			results: []fleet.DeviceResult{
				{Address: "10.0.0.1", Flashed: true, Configured: true},
				{Address: "10.0.0.2", Flashed: true, Configured: true},
			},
			wantType: ResultSuccess,
			want:     []string{"All devices updated", "Flashed:", "Configured:"},
		},
		{
			name: "partial",
			results: []fleet.DeviceResult{
				{Address: "10.0.0.1", Flashed: true, Configured: true},
				{Address: "10.0.0.2", Flashed: true},
				{Address: "10.0.0.3", Outcome: ota.OutcomeUnreachable},
			},
			wantType: ResultWarning,
			want:     []string{"2 of 3 devices need attention", "Not flashed:", "10.0.0.3", "Not configured:", "10.0.0.2"},
		},
		{
			name: "nothing flashed",
			results: []fleet.DeviceResult{
				{Address: "10.0.0.1", Outcome: ota.OutcomeUnreachable},
				{Address: "10.0.0.2", Outcome: ota.OutcomeUnreachable},
			},
			wantType: ResultFailure,
			want:     []string{"No device was updated", "no device was reachable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := SummaryResult(tt.results, opts)
			if r.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", r.Type, tt.wantType)
			}
			out := r.SetWidth(100).Render()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("Render() missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestSummaryResultWithoutConfigure(t *testing.T) {
	results := []fleet.DeviceResult{{Address: "10.0.0.1", Flashed: true, Rebooted: true}}

	r := SummaryResult(results, ReportOptions{})
	if r.Type != ResultSuccess {
		t.Errorf("Type = %v, want success when configuration is disabled", r.Type)
	}
	if strings.Contains(r.SetWidth(100).Render(), "Configured:") {
		t.Error("Configured count should be hidden when configuration is disabled")
	}
}

func TestConfirmDangerousOperation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"typed phrase", "FLASH\n", true},
		{"phrase with spaces", "  FLASH  \n", true},
		{"phrase without newline", "FLASH", true},
		{"lower case", "flash\n", false},
		{"empty", "\n", false},
		{"eof", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := ConfirmFlash(strings.NewReader(tt.input), &out, "wled.bin", 4)
			if got != tt.want {
				t.Errorf("ConfirmFlash() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "FLASH 4 DEVICES") {
				t.Errorf("prompt should name the device count:\n%s", out.String())
			}
			if cancelled := strings.Contains(out.String(), "Operation cancelled."); cancelled == tt.want {
				t.Errorf("cancellation notice shown = %v for %q", cancelled, tt.input)
			}
		})
	}
}

func TestIsInteractive(t *testing.T) {
	if IsInteractive(strings.NewReader("FLASH\n")) {
		t.Error("a string reader is not a terminal")
	}

	f, err := os.CreateTemp(t.TempDir(), "stdin")
	if err != nil {
		t.Fatalf("CreateTemp() error = %v", err)
	}
	defer f.Close()
	if IsInteractive(f) {
		t.Error("a regular file is not a terminal")
	}
}

func TestPrinterPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintReport([]fleet.DeviceResult{
		{Address: "10.0.0.1", Flashed: true, Rebooted: true, Configured: true, Outcome: ota.OutcomeSuccess, Attempts: 1},
	}, ReportOptions{Configure: true})

	out := buf.String()
	for _, want := range []string{"10.0.0.1", "Upload firmware", "All devices updated"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
