package render

import (
	"maps"
	"slices"
	"sort"
)

// Source records where a binding came from. Higher sources win.
type Source int

const (
	SourceDefault  Source = iota + 1 // template front matter default
	SourceDerived                    // computed from the verb, domain and target
	SourceOverride                   // supplied by the caller
)

func (s Source) String() string {
	switch s {
	case SourceDefault:
		return "default"
	case SourceDerived:
		return "derived"
	case SourceOverride:
		return "override"
	default:
		return "unknown"
	}
}

// Binding is a variable value with its provenance.
type Binding struct {
	Value  string
	Source Source
}

// Context is the set of variable bindings for one render.
type Context struct {
	bindings map[string]Binding
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{bindings: make(map[string]Binding)}
}

// Set binds name unless it is already bound from a higher source. Returns
// whether the binding was applied.
func (c *Context) Set(name, value string, src Source) bool {
	if cur, ok := c.bindings[name]; ok && cur.Source > src {
		return false
	}
	c.bindings[name] = Binding{Value: value, Source: src}
	return true
}

// SetAll binds every entry of vars from src.
func (c *Context) SetAll(vars map[string]string, src Source) {
	for _, name := range slices.Sorted(maps.Keys(vars)) {
		c.Set(name, vars[name], src)
	}
}

// Get returns the value bound to name.
func (c *Context) Get(name string) (string, bool) {
	b, ok := c.bindings[name]
	return b.Value, ok
}

// Lookup returns the full binding for name.
func (c *Context) Lookup(name string) (Binding, bool) {
	b, ok := c.bindings[name]
	return b, ok
}

// Names returns every bound name, sorted.
func (c *Context) Names() []string {
	return slices.Sorted(maps.Keys(c.bindings))
}

// From returns the names bound from src, sorted.
func (c *Context) From(src Source) []string {
	var out []string
	for name, b := range c.bindings {
		if b.Source == src {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Values returns the bindings as template data.
func (c *Context) Values() map[string]any {
	out := make(map[string]any, len(c.bindings))
	for name, b := range c.bindings {
		out[name] = b.Value
	}
	return out
}

// Strings returns the bindings as a plain map.
func (c *Context) Strings() map[string]string {
	out := make(map[string]string, len(c.bindings))
	for name, b := range c.bindings {
		out[name] = b.Value
	}
	return out
}

// Clone returns an independent copy.
func (c *Context) Clone() *Context {
	return &Context{bindings: maps.Clone(c.bindings)}
}
