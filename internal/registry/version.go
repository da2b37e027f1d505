package registry

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/dogfold-labs/dogfold/internal/dogerr"
)

// parseVersion strips a leading "v" and parses the version string.
func parseVersion(version string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(strings.TrimPrefix(strings.TrimSpace(version), "v"))
	if err != nil {
		return nil, dogerr.Validationf("registry.version", "invalid version %q", version).Wrap(err)
	}
	return v, nil
}

// isBump reports whether next is strictly newer than current.
func isBump(current, next *semver.Version) bool {
	return next.Compare(current) > 0
}
