package manifest

// SchemaVersion is the manifest format version written by this build.
const SchemaVersion = 1

// Target policy kinds.
const (
	KindSelf              = "self"
	KindExplicitPath      = "explicit-path"
	KindPackageConvention = "package-convention"
)

// Manifest is the durable form of the registry.
type Manifest struct {
	Version int      `yaml:"version" json:"version"`
	Domains []Domain `yaml:"domains" json:"domains"`
}

// Domain is a named namespace of verbs. Parent is the qualified name of the
// enclosing domain, empty for top-level domains.
type Domain struct {
	Name        string `yaml:"name" json:"name"`
	Parent      string `yaml:"parent,omitempty" json:"parent,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Verbs       []Verb `yaml:"verbs,omitempty" json:"verbs,omitempty"`
}

// Verb is a registered generation unit.
type Verb struct {
	ID       string `yaml:"id" json:"id"`
	Template string `yaml:"template" json:"template"`
	Version  string `yaml:"version" json:"version"`
	Target   Target `yaml:"target" json:"target"`
}

// Target is the serialized target policy of a verb.
type Target struct {
	Kind string `yaml:"kind" json:"kind"`
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	Base string `yaml:"base,omitempty" json:"base,omitempty"`
	File string `yaml:"file,omitempty" json:"file,omitempty"`
}

// Qualified returns the domain's fully qualified name.
func (d Domain) Qualified() string {
	if d.Parent == "" {
		return d.Name
	}
	return d.Parent + "." + d.Name
}

// Clone returns a deep copy of m so callers can mutate it without touching
// the original.
func (m *Manifest) Clone() *Manifest {
	if m == nil {
		return nil
	}
	out := &Manifest{Version: m.Version, Domains: make([]Domain, len(m.Domains))}
	for i, d := range m.Domains {
		d.Verbs = append([]Verb(nil), d.Verbs...)
		out.Domains[i] = d
	}
	return out
}

// Domain returns the index of the domain with the given qualified name, or -1.
func (m *Manifest) Domain(qualified string) int {
	for i, d := range m.Domains {
		if d.Qualified() == qualified {
			return i
		}
	}
	return -1
}
