// Package ui provides terminal UI components for the wledflash CLI.
//
// This package uses Bubble Tea, Bubbles and Lipgloss to render terminal
// output. The components follow a "run once and exit" pattern: they render
// output but never require user interaction, apart from the confirmation
// prompt.
//
// # Components
//
//   - Header: run banner showing the firmware image and targets
//   - Narrator: one line per pipeline event, "[ip] phase: message"; it
//     implements fleet.Observer and is safe for concurrent workers
//   - Progress: per-device step list for the final report
//   - Result: success, warning and failure boxes for the fleet summary
//   - Printer: writes components, through RenderOnce on a terminal
//
// # Logging Integration
//
// Logging is controlled via the WLEDFLASH_LOG_LEVEL environment variable or
// the --log-level flag. When unset, zap logging is silent so that the
// narration is the only output. Log output goes to stderr.
package ui
