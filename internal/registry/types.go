package registry

import (
	"github.com/Masterminds/semver/v3"

	"github.com/dogfold-labs/dogfold/internal/manifest"
	"github.com/dogfold-labs/dogfold/internal/resolve"
)

// Domain is a named namespace of verbs.
type Domain struct {
	Name        string
	Parent      string // qualified name of the parent, "" at top level
	Description string
}

// Qualified returns the parent-qualified name, e.g. "tools.remote".
func (d Domain) Qualified() string {
	if d.Parent == "" {
		return d.Name
	}
	return d.Parent + "." + d.Name
}

// Verb is a registered generation unit.
type Verb struct {
	ID       string
	Domain   string // qualified domain name
	Template string // template reference, e.g. "verb.go" or "verb.go@^1"
	Policy   resolve.Policy
	Version  *semver.Version
}

// Qualified returns "domain.id".
func (v *Verb) Qualified() string {
	return v.Domain + "." + v.ID
}

func domainFromManifest(d manifest.Domain) *Domain {
	return &Domain{Name: d.Name, Parent: d.Parent, Description: d.Description}
}

func verbFromManifest(domain string, v manifest.Verb) (*Verb, error) {
	version, err := parseVersion(v.Version)
	if err != nil {
		return nil, err
	}
	return &Verb{
		ID:       v.ID,
		Domain:   domain,
		Template: v.Template,
		Version:  version,
		Policy: resolve.Policy{
			Kind: resolve.Kind(v.Target.Kind),
			Path: v.Target.Path,
			Base: v.Target.Base,
			File: v.Target.File,
		},
	}, nil
}

func verbToManifest(id, template string, policy resolve.Policy, version *semver.Version) manifest.Verb {
	return manifest.Verb{
		ID:       id,
		Template: template,
		Version:  version.String(),
		Target: manifest.Target{
			Kind: string(policy.Kind),
			Path: policy.Path,
			Base: policy.Base,
			File: policy.File,
		},
	}
}
