package bootstrap

import (
	"fmt"
	"strings"
)

// ExistsPolicy decides what happens to a target that holds a file the tool
// did not generate.
type ExistsPolicy string

const (
	ExistsSkip      ExistsPolicy = "skip"
	ExistsError     ExistsPolicy = "error"
	ExistsOverwrite ExistsPolicy = "overwrite"
)

// DriftPolicy decides what happens to a generated file that was edited by
// hand since it was written.
type DriftPolicy string

const (
	DriftRefuse    DriftPolicy = "refuse"
	DriftWarn      DriftPolicy = "warn"
	DriftOverwrite DriftPolicy = "overwrite"
)

// ParseExistsPolicy accepts "skip", "error" or "overwrite"; "" selects skip.
func ParseExistsPolicy(s string) (ExistsPolicy, error) {
	switch p := ExistsPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ExistsSkip, nil
	case ExistsSkip, ExistsError, ExistsOverwrite:
		return p, nil
	default:
		return "", fmt.Errorf("unknown on_exists policy %q (want skip, error or overwrite)", s)
	}
}

// ParseDriftPolicy accepts "refuse", "warn" or "overwrite"; "" selects refuse.
func ParseDriftPolicy(s string) (DriftPolicy, error) {
	switch p := DriftPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DriftRefuse, nil
	case DriftRefuse, DriftWarn, DriftOverwrite:
		return p, nil
	default:
		return "", fmt.Errorf("unknown on_drift policy %q (want refuse, warn or overwrite)", s)
	}
}
