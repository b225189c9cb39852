package service

import (
	"strconv"
	"strings"
)

// NormalizeCode is the sole admission gate for link codes: trim, then accept
// only if every character is a decimal digit. Anything else normalizes to
// the empty string and never reaches the bot or the store.
func NormalizeCode(raw string) string {
	code := strings.TrimSpace(raw)
	if code == "" {
		return ""
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return code
}

// ParseBoundedInt parses a limit-style parameter: non-numeric input falls
// back to def, numeric input is clamped into [min, max].
func ParseBoundedInt(raw string, def, min, max int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
