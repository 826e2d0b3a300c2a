// Package logging provides structured logging for wledflash.
//
// This package wraps a global zap logger with convenience functions for the
// events a flashing run produces. The logger is silent by default so it never
// interleaves with console output; set WLEDFLASH_LOG_LEVEL (or pass
// --log-level) to enable it.
//
// # Log Levels
//
//   - Debug: every firmware POST with status and body
//   - Info: discovery hits, phase transitions, upload classification
//   - Warn: devices that stay offline, unconfirmed configuration
//   - Error: local failures (missing firmware, bad config file)
//
// # Structured Logging
//
// All log functions use structured fields:
//
//	logging.Info("Device phase",
//	    zap.String("ip", "192.168.1.40"),
//	    zap.String("phase", "reboot"),
//	)
//
// Domain helpers keep field names consistent across packages:
//
//	logging.LogUploadAttempt(ip, attempt, wled.FieldUpdate, resp.StatusCode, resp.Body, err)
//	logging.LogClassification(ip, attempt, wled.FieldUpdate, verdict.String())
//	logging.LogPhase(ip, "configure", "done")
//
// # Output Format
//
// Logs are written to stderr in console format:
//
//	2025-11-25T10:30:45.123-0800  INFO  Upload classified  {"ip": "192.168.1.40", "attempt": 1, "field": "update", "verdict": "success"}
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. Initialize and SetLogger
// must be called before workers start.
package logging
