package resolve

import (
	"sort"
	"strings"

	"github.com/dogfold-labs/dogfold/internal/dogerr"
)

// Kind names a target policy.
type Kind string

const (
	KindSelf              Kind = "self"
	KindExplicitPath      Kind = "explicit-path"
	KindPackageConvention Kind = "package-convention"
)

// DefaultBase is the directory package-convention targets live under.
const DefaultBase = "internal"

// Policy is a symbolic description of where a verb's artifact belongs.
type Policy struct {
	Kind Kind
	Path string // explicit-path: path template with {placeholders}
	Base string // package-convention: root directory, default "internal"
	File string // optional file name override
}

// Validate checks that the policy is well formed.
func (p Policy) Validate() error {
	const op = "resolve.policy"
	switch p.Kind {
	case KindSelf, KindPackageConvention:
	case KindExplicitPath:
		if strings.TrimSpace(p.Path) == "" {
			return dogerr.Validationf(op, "explicit-path policy needs a path")
		}
	default:
		return dogerr.Validationf(op, "unknown target policy %q", p.Kind)
	}
	if strings.ContainsAny(p.File, `/\`) {
		return dogerr.Validationf(op, "file override %q must be a bare file name", p.File).
			WithReason(dogerr.ReasonTraversal)
	}
	return nil
}

func (p Policy) String() string {
	switch p.Kind {
	case KindExplicitPath:
		return string(p.Kind) + ":" + p.Path
	case KindPackageConvention:
		if p.Base != "" && p.Base != DefaultBase {
			return string(p.Kind) + ":" + p.Base
		}
	}
	return string(p.Kind)
}

// selfAliases are the target names that select the self policy.
var selfAliases = map[string]bool{
	"self":      true,
	"dog":       true,
	"dogfold":   true,
	"spec":      true,
	"spec-core": true,
	"spec-dev":  true,
}

// KnownTargets lists the named targets accepted by ParseTarget, sorted.
func KnownTargets() []string {
	names := make([]string, 0, len(selfAliases)+1)
	for name := range selfAliases {
		names = append(names, name)
	}
	names = append(names, string(KindPackageConvention))
	sort.Strings(names)
	return names
}

// ParseTarget converts a user supplied target into a Policy. Empty selects
// package-convention; a named alias selects self; anything that looks like a
// path (contains a separator, a dot or a placeholder) is an explicit path.
// Other bare words are rejected with the list of known targets.
func ParseTarget(s string) (Policy, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || s == string(KindPackageConvention):
		return Policy{Kind: KindPackageConvention}, nil
	case selfAliases[strings.ToLower(s)]:
		return Policy{Kind: KindSelf}, nil
	case strings.ContainsAny(s, `/\.{`):
		return Policy{Kind: KindExplicitPath, Path: s}, nil
	}
	return Policy{}, dogerr.Validationf("resolve.target", "unknown target %q (known targets: %s; or give a path)",
		s, strings.Join(KnownTargets(), ", ")).WithReason(dogerr.ReasonNotFound)
}
