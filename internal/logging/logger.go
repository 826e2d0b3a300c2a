package logging

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logger is read by concurrent device workers, so it is swapped atomically
var logger atomic.Pointer[zap.Logger]

var nop = zap.NewNop()

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "WLEDFLASH_LOG_LEVEL"

// Initialize creates a new logger with the specified level.
// If level is empty, it checks WLEDFLASH_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	// If no level provided, check environment variable
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	// If still no level, use silent mode (nop logger)
	if level == "" {
		logger.Store(nop)
		return nil
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(ParseLevel(level)),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	// Customize encoder for better readability
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	built, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Store(built)

	return nil
}

// ParseLevel maps a level name to a zap level.
// Unknown names fall back to info, since asking for logs at all means the
// operator wants to see something.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// InitializeFromEnv initializes the logger from the WLEDFLASH_LOG_LEVEL
// environment variable.
func InitializeFromEnv() error {
	return Initialize("")
}

// SetLogger replaces the global logger. Intended for tests that want to
// capture output with zaptest/observer.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = nop
	}
	logger.Store(l)
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	// Silent until initialized
	return nop
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// LogDeviceFound logs a device discovered over mDNS
func LogDeviceFound(ip, hostname string) {
	Info("Device found",
		zap.String("ip", ip),
		zap.String("hostname", hostname),
	)
}

// LogPhase logs the start or end of a per-device phase (upload, reboot, configure)
func LogPhase(ip, phase, event string, fields ...zap.Field) {
	Info("Device phase",
		append([]zap.Field{
			zap.String("ip", ip),
			zap.String("phase", phase),
			zap.String("event", event),
		}, fields...)...,
	)
}

// LogUploadAttempt logs one firmware POST
func LogUploadAttempt(ip string, attempt int, field string, statusCode int, body string, err error) {
	fields := []zap.Field{
		zap.String("ip", ip),
		zap.Int("attempt", attempt),
		zap.String("field", field),
	}
	if statusCode != 0 {
		fields = append(fields, zap.Int("status", statusCode))
	}
	if body != "" {
		fields = append(fields, zap.String("body", truncate(body, 120)))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	Debug("Firmware upload request", fields...)
}

// LogClassification logs how an upload response was interpreted
func LogClassification(ip string, attempt int, field, verdict string) {
	Info("Upload classified",
		zap.String("ip", ip),
		zap.Int("attempt", attempt),
		zap.String("field", field),
		zap.String("verdict", verdict),
	)
}

// LogDeviceResult logs the final per-device result
func LogDeviceResult(ip string, flashed, configured bool, outcome string, elapsed time.Duration) {
	Info("Device finished",
		zap.String("ip", ip),
		zap.Bool("flashed", flashed),
		zap.Bool("configured", configured),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", elapsed),
	)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Sync flushes any buffered log entries
func Sync() {
	if l := logger.Load(); l != nil {
		_ = l.Sync()
	}
}
