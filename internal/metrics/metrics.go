package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/muurk/wledflash/internal/fleet"
	"github.com/muurk/wledflash/internal/wled"
)

const namespace = "wledflash"

// Device result label values
const (
	ResultConfigured = "configured"
	ResultFlashed    = "flashed"
	ResultFailed     = "failed"
)

// Recorder collects the counters of one flash run in a private registry.
// It implements fleet.Observer and is safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	devices        *prometheus.CounterVec
	uploadCalls    *prometheus.CounterVec
	uploadOutcomes *prometheus.CounterVec
	phaseFailures  *prometheus.CounterVec
	deviceDuration prometheus.Histogram
}

var _ fleet.Observer = (*Recorder)(nil)

// NewRecorder creates a recorder with all metrics registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		devices: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "devices_total",
				Help:      "Devices processed, by final result.",
			},
			[]string{"result"},
		),
		uploadCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upload_calls_total",
				Help:      "Firmware POST requests sent, by multipart field name.",
			},
			[]string{"field"},
		),
		uploadOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upload_outcomes_total",
				Help:      "Per-device upload outcomes.",
			},
			[]string{"outcome"},
		),
		phaseFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "phase_failures_total",
				Help:      "Pipeline phases that did not succeed, by phase.",
			},
			[]string{"phase"},
		),
		deviceDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "device_duration_seconds",
				Help:      "Wall time spent on each device.",
				Buckets:   []float64{1, 5, 15, 30, 60, 90, 120, 180, 300},
			},
		),
	}

	r.registry.MustRegister(r.devices, r.uploadCalls, r.uploadOutcomes, r.phaseFailures, r.deviceDuration)
	return r
}

// Registry returns the registry holding the run metrics
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// PhaseStarted implements fleet.Observer
func (r *Recorder) PhaseStarted(string, fleet.Phase) {}

// PhaseFinished implements fleet.Observer
func (r *Recorder) PhaseFinished(_ string, phase fleet.Phase, ok bool, _ string) {
	if !ok {
		r.phaseFailures.WithLabelValues(string(phase)).Inc()
	}
}

// DeviceFinished implements fleet.Observer
func (r *Recorder) DeviceFinished(result fleet.DeviceResult) {
	r.devices.WithLabelValues(resultLabel(result)).Inc()
	r.uploadOutcomes.WithLabelValues(result.Outcome.String()).Inc()

	if primary := result.Calls - result.Fallbacks; primary > 0 {
		r.uploadCalls.WithLabelValues(wled.FieldUpdate).Add(float64(primary))
	}
	if result.Fallbacks > 0 {
		r.uploadCalls.WithLabelValues(wled.FieldFile).Add(float64(result.Fallbacks))
	}

	r.deviceDuration.Observe(result.Duration.Seconds())
}

func resultLabel(result fleet.DeviceResult) string {
	switch {
	case result.Configured:
		return ResultConfigured
	case result.Flashed:
		return ResultFlashed
	default:
		return ResultFailed
	}
}

// WriteTextfile writes the metrics in the Prometheus text format to path,
// for node_exporter's textfile collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
