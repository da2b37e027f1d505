package resolve

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"

	"github.com/dogfold-labs/dogfold/internal/branding"
	"github.com/dogfold-labs/dogfold/internal/dogerr"
	"github.com/dogfold-labs/dogfold/internal/platform"
	"github.com/dogfold-labs/dogfold/internal/templates"
)

// selfLayout is the reserved mapping from a self domain to the tool's own
// source layout.
var selfLayout = map[string]string{
	"verbs":   "internal/verbs",
	"classes": "internal/classes",
	"kernel":  "internal/kernel",
}

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Request describes one verb whose target is to be resolved.
type Request struct {
	Verb   string            // qualified verb id, e.g. "tools.install"
	Domain string            // qualified domain, e.g. "tools"
	ID     string            // verb id within the domain, e.g. "install"
	Policy Policy            // where the artifact goes
	Ext    string            // artifact extension taken from the template, e.g. ".go"
	Vars   map[string]string // bindings for {placeholders}
}

// Target is a concrete, root-confined location for one artifact.
type Target struct {
	Verb          string
	Path          string // absolute
	Real          string // Path with symlinks in its existing prefix resolved
	Rel           string // slash separated, relative to the root
	Dir           string // slash separated directory of Rel, "." for the root
	Package       string // Go import path of Dir ("" without a go.mod)
	PackageName   string // Go package name for Dir
	Exists        bool   // a file is already present at Path
	PackageExists bool   // Dir already holds Go files
}

// Resolver resolves targets within a single root.
type Resolver struct {
	root       string
	module     string
	selfModule string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSelfModule overrides the module path a tree must declare to accept self
// targets. Defaults to the tool's own module.
func WithSelfModule(module string) Option {
	return func(r *Resolver) { r.selfModule = module }
}

// New returns a Resolver for root. The root's go.mod, when present, supplies
// the module path used for package identity.
func New(root string, opts ...Option) (*Resolver, error) {
	const op = "resolve.new"

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, dogerr.FileSystemf(op, "resolving root").WithPath(root).Wrap(err)
	}
	abs, err = platform.EvalExistingPrefix(abs)
	if err != nil {
		return nil, dogerr.FileSystemf(op, "resolving root").WithPath(root).Wrap(err)
	}
	module, err := ModulePath(abs)
	if err != nil {
		return nil, err
	}

	r := &Resolver{root: abs, module: module, selfModule: branding.GoModule()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Root returns the absolute, symlink-resolved root.
func (r *Resolver) Root() string { return r.root }

// Module returns the module path declared by the root's go.mod, if any.
func (r *Resolver) Module() string { return r.module }

// IsSelf reports whether the root is the tool's own source tree.
func (r *Resolver) IsSelf() bool {
	return r.module != "" && r.module == r.selfModule
}

// ModulePath reads the module path from root/go.mod. A missing go.mod yields
// an empty path and no error.
func ModulePath(root string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", dogerr.FileSystemf("resolve.module", "reading go.mod").WithPath(root).Wrap(err)
	}
	module := modfile.ModulePath(data)
	if module == "" {
		return "", dogerr.Validationf("resolve.module", "go.mod does not declare a module").
			WithPath(filepath.Join(root, "go.mod"))
	}
	return module, nil
}

// Resolve computes the target for a single request. It never touches the
// filesystem beyond reading.
func (r *Resolver) Resolve(req Request) (*Target, error) {
	const op = "resolve.target"

	if err := req.Policy.Validate(); err != nil {
		return nil, withVerb(err, req.Verb)
	}

	var rel string
	switch req.Policy.Kind {
	case KindSelf:
		if !r.IsSelf() {
			return nil, dogerr.Validationf(op, "self targets need the %s source tree, but %s declares module %q",
				r.selfModule, r.root, r.module).WithVerb(req.Verb).WithPath(r.root)
		}
		top, _, _ := strings.Cut(req.Domain, ".")
		dir, ok := selfLayout[top]
		if !ok {
			return nil, dogerr.Validationf(op, "domain %q has no place in the tool's own layout (reserved: %s)",
				req.Domain, strings.Join(selfDomains(), ", ")).WithVerb(req.Verb)
		}
		rel = path.Join(dir, r.fileName(req))

	case KindExplicitPath:
		p, err := substitute(req)
		if err != nil {
			return nil, err
		}
		rel = p
		if req.Policy.File != "" {
			rel = path.Join(rel, req.Policy.File)
		}

	case KindPackageConvention:
		base := req.Policy.Base
		if base == "" {
			base = DefaultBase
		}
		if req.Domain == "" {
			return nil, dogerr.Validationf(op, "package-convention targets need a domain").WithVerb(req.Verb)
		}
		segments := strings.Split(req.Domain, ".")
		rel = path.Join(append(append([]string{filepath.ToSlash(base)}, segments...), r.fileName(req))...)
	}

	return r.locate(req.Verb, rel)
}

// ResolveAll resolves every request before any file is touched and rejects
// the plan when two verbs map to the same file, symlinks included.
func (r *Resolver) ResolveAll(reqs []Request) ([]*Target, error) {
	targets := make([]*Target, 0, len(reqs))
	owner := make(map[string]string, len(reqs))
	for _, req := range reqs {
		t, err := r.Resolve(req)
		if err != nil {
			return nil, err
		}
		key := t.Real
		if prev, ok := owner[key]; ok {
			return nil, dogerr.Validationf("resolve.all", "verbs %s and %s both target %s", prev, req.Verb, t.Rel).
				WithReason(dogerr.ReasonCollision).WithVerb(req.Verb).WithPath(t.Rel)
		}
		owner[key] = req.Verb
		targets = append(targets, t)
	}
	return targets, nil
}

func (r *Resolver) fileName(req Request) string {
	if req.Policy.File != "" {
		return req.Policy.File
	}
	return templates.Snake(req.ID) + req.Ext
}

// locate confines rel to the root and fills in what already exists there.
func (r *Resolver) locate(verb, rel string) (*Target, error) {
	const op = "resolve.locate"

	rel = filepath.ToSlash(strings.TrimSpace(rel))
	if rel == "" {
		return nil, dogerr.Validationf(op, "empty target path").WithVerb(verb)
	}
	if path.IsAbs(rel) || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return nil, dogerr.Validationf(op, "target %q must be relative to the root", rel).
			WithReason(dogerr.ReasonTraversal).WithVerb(verb).WithPath(rel)
	}
	clean := path.Clean(rel)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return nil, dogerr.Validationf(op, "target %q escapes the root", rel).
			WithReason(dogerr.ReasonTraversal).WithVerb(verb).WithPath(rel)
	}

	abs := filepath.Join(r.root, filepath.FromSlash(clean))
	resolved, err := platform.EvalExistingPrefix(abs)
	if err != nil {
		return nil, dogerr.FileSystemf(op, "resolving %s", clean).WithVerb(verb).WithPath(clean).Wrap(err)
	}
	if !platform.Within(r.root, resolved) {
		return nil, dogerr.Validationf(op, "target %q escapes the root through a symlink", rel).
			WithReason(dogerr.ReasonTraversal).WithVerb(verb).WithPath(clean)
	}

	t := &Target{Verb: verb, Path: abs, Real: resolved, Rel: clean, Dir: path.Dir(clean)}
	info, err := os.Stat(abs)
	switch {
	case err == nil && info.IsDir():
		return nil, dogerr.Validationf(op, "target %q is a directory", clean).WithVerb(verb).WithPath(clean)
	case err == nil:
		t.Exists = true
	case !errors.Is(err, fs.ErrNotExist):
		return nil, dogerr.FileSystemf(op, "inspecting %s", clean).WithVerb(verb).WithPath(clean).Wrap(err)
	}

	t.PackageName = PackageName(t.Dir)
	if r.module != "" {
		t.Package = r.module
		if t.Dir != "." {
			t.Package = r.module + "/" + t.Dir
		}
	}
	t.PackageExists = hasGoFiles(filepath.Dir(abs))
	return t, nil
}

// substitute expands {placeholders} in an explicit path. Every placeholder
// must be bound; nothing falls back to a default.
func substitute(req Request) (string, error) {
	vars := map[string]string{"domain": req.Domain, "id": req.ID, "verb": req.Verb}
	for k, v := range req.Vars {
		vars[k] = v
	}

	if strings.ContainsAny(placeholderRe.ReplaceAllString(req.Policy.Path, ""), "{}") {
		return "", dogerr.Validationf("resolve.substitute", "malformed placeholder in %q", req.Policy.Path).
			WithReason(dogerr.ReasonPlaceholder).WithVerb(req.Verb).WithPath(req.Policy.Path)
	}

	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(req.Policy.Path, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := vars[name]
		if !ok || v == "" {
			missing = append(missing, name)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", dogerr.Validationf("resolve.substitute", "unresolved placeholders in %q", req.Policy.Path).
			WithReason(dogerr.ReasonPlaceholder).WithVerb(req.Verb).WithPath(req.Policy.Path).WithVariables(missing)
	}
	return out, nil
}

// PackageName derives a Go package name from a slash separated directory.
// Separators and other invalid runes are dropped, so "go-yaml" becomes "goyaml".
func PackageName(dir string) string {
	if dir == "." || dir == "" {
		return "main"
	}
	name := strings.ToLower(path.Base(dir))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9' && b.Len() > 0:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "main"
	}
	return b.String()
}

func hasGoFiles(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".go") {
			return true
		}
	}
	return false
}

func selfDomains() []string {
	names := make([]string, 0, len(selfLayout))
	for name := range selfLayout {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func withVerb(err error, verb string) error {
	var derr *dogerr.Error
	if errors.As(err, &derr) && derr.Verb == "" {
		derr.Verb = verb
	}
	return err
}

func (t *Target) String() string {
	return fmt.Sprintf("%s -> %s", t.Verb, t.Rel)
}
