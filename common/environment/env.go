// Package environment provides helpers for overlaying configuration from
// environment variables.
//
// The Override* helpers only touch the destination when the variable is set
// and non-empty, so a value loaded from a config file survives unless the
// operator explicitly overrides it. Malformed values are reported as errors
// instead of being silently replaced by a default.
package environment

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// OverrideString sets *dst to the variable's value when it is non-empty.
func OverrideString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

// OverrideInt parses the variable as a decimal integer into *dst.
func OverrideInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("environment variable %q: invalid integer %q", name, v)
	}
	*dst = n
	return nil
}

// OverrideDuration parses the variable as a time.Duration (e.g. "30s", "1h")
// into *dst.
func OverrideDuration(name string, dst *time.Duration) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("environment variable %q: invalid duration %q", name, v)
	}
	*dst = d
	return nil
}

// OverrideStringSlice parses the variable as a comma-separated list, trimming
// whitespace and dropping empty elements. *dst is left alone when the
// variable yields no elements.
func OverrideStringSlice(name string, dst *[]string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			result = append(result, t)
		}
	}
	if len(result) > 0 {
		*dst = result
	}
}
