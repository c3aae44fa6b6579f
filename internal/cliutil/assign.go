// Package cliutil holds small helpers shared by the command line tools.
package cliutil

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAssignment splits "name=value" into a parameter name and its numeric
// value. Surrounding whitespace is ignored.
func ParseAssignment(s string) (string, float64, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return "", 0, fmt.Errorf("expected name=value, got %q", s)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "", 0, fmt.Errorf("missing parameter name in %q", s)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return "", 0, fmt.Errorf("parameter %s: %w", name, err)
	}

	return name, v, nil
}
