// Package fleet runs the firmware update pipeline across many WLED devices
// concurrently and aggregates the per-device results.
//
// Each address gets one worker goroutine that runs upload, reboot wait,
// optional firmware version read, baseline configuration and optional state
// verification. Workers are joined with a WaitGroup and report over a
// buffered channel; the calling goroutine is the only writer of the result
// slice. Concurrency can be bounded with a semaphore.
//
// Progress is reported through the Observer interface so console output,
// logging and metrics stay out of the pipeline.
package fleet
