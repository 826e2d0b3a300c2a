// Package metrics records flash run counters with the Prometheus client and
// writes them as a textfile once the run is over.
//
// The flasher is a one-shot CLI, so nothing is served over HTTP. Point
// node_exporter's textfile collector at the file written by
// Recorder.WriteTextfile to keep a history of runs.
package metrics
