package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConfirmPhrase must be typed to confirm a flash run
const ConfirmPhrase = "FLASH"

// ConfirmDangerousOperation displays a warning box on out and reads one line
// from in. It returns true only if the line is phrase.
func ConfirmDangerousOperation(in io.Reader, out io.Writer, title string, warnings []string, phrase string) bool {
	width := GetTerminalWidth()

	lines := []string{
		"",
		WarningTitleStyle.Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, title)),
		"",
	}
	for _, warning := range warnings {
		lines = append(lines, ResultValueStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	_, _ = fmt.Fprintln(out, boxStyle(WarningColor, width).Render(strings.Join(lines, "\n")))
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprint(out, WarningTitleStyle.Render(fmt.Sprintf("To proceed, type %q and press Enter: ", phrase)))

	// A read error with no input (EOF) is a refusal
	input, _ := bufio.NewReader(in).ReadString('\n')
	_, _ = fmt.Fprintln(out)

	if strings.TrimSpace(input) == phrase {
		return true
	}

	_, _ = fmt.Fprintln(out, lipgloss.NewStyle().Foreground(MutedColor).Render("  Operation cancelled."))
	_, _ = fmt.Fprintln(out)
	return false
}

// ConfirmFlash asks before flashing several devices at once
func ConfirmFlash(in io.Reader, out io.Writer, firmware string, devices int) bool {
	return ConfirmDangerousOperation(in, out,
		fmt.Sprintf("FLASH %d DEVICES", devices),
		[]string{
			fmt.Sprintf("%s will be written to %d devices at the same time", firmware, devices),
			"Devices reboot after the update and go dark for up to a minute",
			"Do not power off devices while they are updating",
			"A build for the wrong chip (ESP8266 or ESP32) can leave a device needing a serial reflash",
		},
		ConfirmPhrase,
	)
}
