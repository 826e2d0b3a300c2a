package wled

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// VerificationOptions configures how state verification behaves
type VerificationOptions struct {
	// MaxRetries is the maximum number of additional read attempts
	// Default: 2
	MaxRetries int

	// InitialDelay is the delay before the first read
	// This gives the device time to apply the new state
	// Default: 500ms
	InitialDelay time.Duration

	// RetryDelay is the delay between attempts
	// Default: 1s
	RetryDelay time.Duration

	// ReadTimeout bounds each websocket read
	// Default: 5s
	ReadTimeout time.Duration
}

// DefaultVerificationOptions returns sensible defaults for verification
func DefaultVerificationOptions() *VerificationOptions {
	return &VerificationOptions{
		MaxRetries:   2,
		InitialDelay: 500 * time.Millisecond,
		RetryDelay:   1 * time.Second,
		ReadTimeout:  5 * time.Second,
	}
}

// VerificationResult contains the results of a state verification
type VerificationResult struct {
	// Success indicates whether the device reports the expected state
	Success bool

	// Attempts is the number of reads made
	Attempts int

	// ActualState is the last state read from the device
	ActualState *State

	// Mismatches lists all differences between expected and actual state
	Mismatches []string

	// Error is the last error that occurred during verification
	Error error
}

// VerifyState reads the device state over the websocket and compares it to
// the expected baseline, retrying while the device settles.
func (c *Client) VerifyState(ctx context.Context, expected Baseline, opts *VerificationOptions) *VerificationResult {
	if opts == nil {
		opts = DefaultVerificationOptions()
	}

	result := &VerificationResult{
		Mismatches: []string{},
	}

	if err := sleepContext(ctx, opts.InitialDelay); err != nil {
		result.Error = err
		return result
	}

	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, opts.RetryDelay); err != nil {
				result.Error = err
				return result
			}
		}
		result.Attempts++

		state, err := c.ReadState(ctx, opts.ReadTimeout)
		if err != nil {
			result.Error = fmt.Errorf("attempt %d: failed to read state: %w", attempt+1, err)
			continue
		}

		result.ActualState = state
		result.Mismatches = compareState(expected, state)
		if len(result.Mismatches) == 0 {
			result.Success = true
			result.Error = nil
			return result
		}

		result.Error = fmt.Errorf("attempt %d: %s", attempt+1, formatMismatches(result.Mismatches))
	}

	return result
}

// compareState compares the expected baseline with the reported state.
// Returns a list of mismatches (empty if all match).
func compareState(expected Baseline, actual *State) []string {
	var mismatches []string

	if actual.On == nil || *actual.On != expected.Power {
		mismatches = append(mismatches, fmt.Sprintf("on: expected %v, got %s", expected.Power, boolPtrString(actual.On)))
	}

	// A device that is switched off may report any brightness
	if expected.Power {
		if actual.Bri == nil || *actual.Bri != expected.Brightness {
			mismatches = append(mismatches, fmt.Sprintf("bri: expected %d, got %s", expected.Brightness, intPtrString(actual.Bri)))
		}
	}

	if color, ok := actual.PrimaryColor(); ok && color != expected.Color {
		mismatches = append(mismatches, fmt.Sprintf("color: expected %s, got %s", expected.Color, color))
	}

	return mismatches
}

// formatMismatches creates a human-readable summary of mismatches
func formatMismatches(mismatches []string) string {
	switch len(mismatches) {
	case 0:
		return "none"
	case 1:
		return mismatches[0]
	default:
		return fmt.Sprintf("%d mismatches: %s", len(mismatches), strings.Join(mismatches, "; "))
	}
}

func boolPtrString(b *bool) string {
	if b == nil {
		return "nothing"
	}
	return fmt.Sprintf("%v", *b)
}

func intPtrString(i *int) string {
	if i == nil {
		return "nothing"
	}
	return fmt.Sprintf("%d", *i)
}

// sleepContext sleeps for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
