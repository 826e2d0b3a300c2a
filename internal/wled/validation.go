package wled

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidateBrightness validates a brightness value.
// WLED brightness is a single byte: 0 (off) to 255 (full).
func ValidateBrightness(bri int) error {
	if bri < 0 || bri > 255 {
		return NewValidationError(fmt.Sprintf("brightness must be 0-255, got %d", bri))
	}
	return nil
}

// ValidateColorChannel validates one colour channel value (0-255)
func ValidateColorChannel(name string, v int) error {
	if v < 0 || v > 255 {
		return NewValidationError(fmt.Sprintf("color channel %s must be 0-255, got %d", name, v))
	}
	return nil
}

// ValidateColor validates all three channels of a colour.
// Returns a slice of validation errors (empty if valid).
func ValidateColor(c RGB) []error {
	var errors []error

	if err := ValidateColorChannel("r", c.R); err != nil {
		errors = append(errors, err)
	}
	if err := ValidateColorChannel("g", c.G); err != nil {
		errors = append(errors, err)
	}
	if err := ValidateColorChannel("b", c.B); err != nil {
		errors = append(errors, err)
	}

	return errors
}

// ValidateBaseline validates a complete baseline payload.
// Returns a slice of validation errors (empty if valid).
func ValidateBaseline(b Baseline) []error {
	var errors []error

	if err := ValidateBrightness(b.Brightness); err != nil {
		errors = append(errors, err)
	}
	errors = append(errors, ValidateColor(b.Color)...)

	return errors
}

// ParseRGB parses a colour given as "r,g,b" (e.g. "50,20,110").
// Whitespace around each component is ignored.
func ParseRGB(s string) (RGB, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return RGB{}, NewValidationError(fmt.Sprintf("color must be r,g,b, got %q", s))
	}

	values := make([]int, 3)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return RGB{}, NewValidationError(fmt.Sprintf("invalid color component %q", part))
		}
		values[i] = v
	}

	c := RGB{R: values[0], G: values[1], B: values[2]}
	if errs := ValidateColor(c); len(errs) > 0 {
		return RGB{}, errs[0]
	}
	return c, nil
}

// RGBFromSlice converts a [r,g,b] slice into an RGB value
func RGBFromSlice(values []int) (RGB, error) {
	if len(values) != 3 {
		return RGB{}, NewValidationError(fmt.Sprintf("color must have 3 components, got %d", len(values)))
	}
	c := RGB{R: values[0], G: values[1], B: values[2]}
	if errs := ValidateColor(c); len(errs) > 0 {
		return RGB{}, errs[0]
	}
	return c, nil
}
