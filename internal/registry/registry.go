package registry

import (
	"context"
	_ "embed"
	"errors"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/dogfold-labs/dogfold/internal/dogerr"
	"github.com/dogfold-labs/dogfold/internal/manifest"
	"github.com/dogfold-labs/dogfold/internal/platform"
	"github.com/dogfold-labs/dogfold/internal/resolve"
)

//go:embed builtin.yaml
var builtinManifest []byte

// Builtin returns the embedded manifest every new registry starts from.
func Builtin() []byte {
	return append([]byte(nil), builtinManifest...)
}

// TemplateChecker reports whether a template reference resolves. The
// template store satisfies it.
type TemplateChecker interface {
	Has(ref string) bool
}

// Registry is the catalog of domains and verbs.
type Registry struct {
	mu          sync.RWMutex
	path        string // "" keeps the registry in memory only
	fs          afero.Fs
	man         *manifest.Manifest
	seeded      bool // loaded from the seed and not yet written
	seed        []byte
	templates   TemplateChecker
	logger      *slog.Logger
	lockTimeout time.Duration
}

// Option configures a Registry.
type Option func(*Registry)

// WithTemplates makes registration reject template references that do not
// resolve.
func WithTemplates(tc TemplateChecker) Option {
	return func(r *Registry) { r.templates = tc }
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithLockTimeout bounds how long a registration waits for the file lock.
func WithLockTimeout(d time.Duration) Option {
	return func(r *Registry) { r.lockTimeout = d }
}

// WithSeed replaces the built-in manifest used when no manifest exists yet.
func WithSeed(data []byte) Option {
	return func(r *Registry) { r.seed = data }
}

// Open loads the manifest at path. When the file does not exist the registry
// starts from the seed manifest; nothing is written until the first
// registration or Flush. An empty path gives an in-memory registry.
func Open(ctx context.Context, path string, opts ...Option) (*Registry, error) {
	r := &Registry{
		path:        path,
		fs:          afero.NewOsFs(),
		seed:        builtinManifest,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		lockTimeout: platform.DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, seeded, err := r.load()
	if err != nil {
		return nil, err
	}
	if err := r.check(m); err != nil {
		return nil, err
	}
	r.man, r.seeded = m, seeded
	r.logger.Debug("registry opened", "path", path, "domains", len(m.Domains), "seeded", seeded)
	return r, nil
}

// Path returns the manifest location, "" for in-memory registries.
func (r *Registry) Path() string { return r.path }

// load reads the manifest from disk, or the seed when there is none.
func (r *Registry) load() (*manifest.Manifest, bool, error) {
	const op = "registry.load"

	data, seeded := []byte(nil), false
	if r.path != "" {
		raw, err := afero.ReadFile(r.fs, r.path)
		switch {
		case err == nil:
			data = raw
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, false, dogerr.FileSystemf(op, "reading manifest").WithPath(r.path).Wrap(err)
		}
	}
	if data == nil {
		data, seeded = r.seed, true
	}

	result, err := manifest.Validate(data)
	if err != nil {
		return nil, false, dogerr.Validationf(op, "manifest is not valid YAML").WithPath(r.path).Wrap(err)
	}
	if !result.Valid {
		return nil, false, dogerr.Validationf(op, "manifest does not match the schema: %s", result).WithPath(r.path)
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, false, dogerr.Validationf(op, "parsing manifest").WithPath(r.path).Wrap(err)
	}
	return m, seeded, nil
}

// check runs the cross-entry rules and, when a template checker is set,
// verifies every template reference.
func (r *Registry) check(m *manifest.Manifest) error {
	const op = "registry.check"

	if issues := manifest.Check(m); len(issues) > 0 {
		res := &manifest.ValidationResult{Issues: issues}
		return dogerr.Validationf(op, "%s", res).WithPath(r.path)
	}
	for _, d := range m.Domains {
		for _, v := range d.Verbs {
			if _, err := verbFromManifest(d.Qualified(), v); err != nil {
				return err
			}
			if r.templates != nil && !r.templates.Has(v.Template) {
				return dogerr.Validationf(op, "template %q does not resolve", v.Template).
					WithReason(dogerr.ReasonNotFound).WithVerb(d.Qualified() + "." + v.ID).WithPath(r.path)
			}
		}
	}
	return nil
}

// mutate applies fn to a fresh copy of the durable state under both locks.
// fn reports whether it changed anything; unchanged state is not rewritten
// unless force is set.
func (r *Registry) mutate(ctx context.Context, force bool, fn func(*manifest.Manifest) (bool, error)) error {
	const op = "registry.write"

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.path != "" {
		lock, err := platform.AcquireLock(ctx, r.path+".lock", r.lockTimeout)
		if err != nil {
			return dogerr.FileSystemf(op, "registry is locked by another process").
				WithReason(dogerr.ReasonLocked).WithPath(r.path).Wrap(err)
		}
		defer lock.Release()

		m, seeded, err := r.load()
		if err != nil {
			return err
		}
		r.man, r.seeded = m, seeded
	}

	next := r.man.Clone()
	changed, err := fn(next)
	if err != nil {
		return err
	}
	if !changed && !(force && r.seeded) {
		return nil
	}

	result, err := manifest.ValidateManifest(next)
	if err != nil {
		return dogerr.Validationf(op, "validating manifest").WithPath(r.path).Wrap(err)
	}
	if !result.Valid {
		return dogerr.Validationf(op, "%s", result).WithPath(r.path)
	}

	if r.path != "" {
		data, err := manifest.Marshal(next)
		if err != nil {
			return dogerr.Validationf(op, "encoding manifest").WithPath(r.path).Wrap(err)
		}
		if err := platform.WriteFileAtomic(ctx, r.fs, r.path, data, 0o644); err != nil {
			derr := dogerr.FileSystemf(op, "writing manifest").WithPath(r.path).Wrap(err)
			if errors.Is(err, platform.ErrInterrupted) {
				derr.WithReason(dogerr.ReasonInterrupted)
			}
			return derr
		}
	}
	r.man, r.seeded = next, false
	return nil
}

// RegisterDomain adds a domain under parent ("" for top level). Registering
// an existing domain again is a no-op.
func (r *Registry) RegisterDomain(ctx context.Context, name, parent string) (*Domain, error) {
	const op = "registry.register-domain"

	var out *Domain
	err := r.mutate(ctx, false, func(m *manifest.Manifest) (bool, error) {
		d := manifest.Domain{Name: name, Parent: parent}
		if i := m.Domain(d.Qualified()); i >= 0 {
			out = domainFromManifest(m.Domains[i])
			return false, nil
		}
		if parent != "" && m.Domain(parent) < 0 {
			return false, dogerr.Validationf(op, "parent domain %q is not registered", parent).
				WithReason(dogerr.ReasonNotFound)
		}
		m.Domains = append(m.Domains, d)
		out = domainFromManifest(d)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("domain registered", "domain", out.Qualified())
	return out, nil
}

// Register adds verb id to domain. Registering identical content again is a
// no-op; changing a registered verb requires a strictly greater version, and
// the entry is then replaced in place.
func (r *Registry) Register(ctx context.Context, domain, id, templateRef string, policy resolve.Policy, version string) (*Verb, error) {
	const op = "registry.register"
	qualified := domain + "." + id

	v, err := parseVersion(version)
	if err != nil {
		return nil, withVerb(err, qualified)
	}
	if err := policy.Validate(); err != nil {
		return nil, withVerb(err, qualified)
	}
	if r.templates != nil && !r.templates.Has(templateRef) {
		return nil, dogerr.Validationf(op, "template %q does not resolve", templateRef).
			WithReason(dogerr.ReasonNotFound).WithVerb(qualified)
	}
	entry := verbToManifest(id, templateRef, policy, v)

	err = r.mutate(ctx, false, func(m *manifest.Manifest) (bool, error) {
		di := m.Domain(domain)
		if di < 0 {
			return false, dogerr.Validationf(op, "domain %q is not registered", domain).
				WithReason(dogerr.ReasonNotFound).WithVerb(qualified)
		}
		verbs := m.Domains[di].Verbs
		for i, existing := range verbs {
			if existing.ID != id {
				continue
			}
			if existing == entry {
				return false, nil
			}
			current, err := parseVersion(existing.Version)
			if err != nil {
				return false, withVerb(err, qualified)
			}
			if !isBump(current, v) {
				return false, dogerr.Validationf(op, "verb is already registered at %s with different content; bump the version to change it", current).
					WithReason(dogerr.ReasonDuplicate).WithVerb(qualified)
			}
			verbs[i] = entry
			return true, nil
		}
		m.Domains[di].Verbs = append(verbs, entry)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("verb registered", "verb", qualified, "version", v.String(), "template", templateRef, "target", policy.String())
	return r.Lookup(domain, id)
}

// Flush writes the manifest if it only exists as the in-memory seed.
func (r *Registry) Flush(ctx context.Context) error {
	return r.mutate(ctx, true, func(*manifest.Manifest) (bool, error) { return false, nil })
}

// Lookup returns the verb id in domain.
func (r *Registry) Lookup(domain, id string) (*Verb, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if di := r.man.Domain(domain); di >= 0 {
		for _, v := range r.man.Domains[di].Verbs {
			if v.ID == id {
				return verbFromManifest(domain, v)
			}
		}
	}
	return nil, dogerr.Validationf("registry.lookup", "verb not found").
		WithReason(dogerr.ReasonNotFound).WithVerb(domain + "." + id)
}

// Domain returns the domain with the given qualified name.
func (r *Registry) Domain(qualified string) (*Domain, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if di := r.man.Domain(qualified); di >= 0 {
		return domainFromManifest(r.man.Domains[di]), nil
	}
	return nil, dogerr.Validationf("registry.domain", "domain %q not found", qualified).
		WithReason(dogerr.ReasonNotFound)
}

// Domains returns every domain in registration order.
func (r *Registry) Domains() []*Domain {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Domain, 0, len(r.man.Domains))
	for _, d := range r.man.Domains {
		out = append(out, domainFromManifest(d))
	}
	return out
}

// List yields the verbs of domain, or of every domain when domain is empty.
// Verbs come in registration order, domains in registration order; sorted
// orders them by qualified identifier instead. The sequence iterates over a
// snapshot taken when List is called.
func (r *Registry) List(domain string, sorted bool) iter.Seq[*Verb] {
	r.mu.RLock()
	var snapshot []*Verb
	for _, d := range r.man.Domains {
		q := d.Qualified()
		if domain != "" && q != domain {
			continue
		}
		for _, v := range d.Verbs {
			if verb, err := verbFromManifest(q, v); err == nil {
				snapshot = append(snapshot, verb)
			}
		}
	}
	r.mu.RUnlock()

	if sorted {
		sort.SliceStable(snapshot, func(i, j int) bool {
			return snapshot[i].Qualified() < snapshot[j].Qualified()
		})
	}
	return func(yield func(*Verb) bool) {
		for _, v := range snapshot {
			if !yield(v) {
				return
			}
		}
	}
}

// Reload discards in-memory state and rereads the manifest.
func (r *Registry) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, seeded, err := r.load()
	if err != nil {
		return err
	}
	if err := r.check(m); err != nil {
		return err
	}
	r.man, r.seeded = m, seeded
	return nil
}

// Seeded reports whether the registry has not been written to disk yet.
func (r *Registry) Seeded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seeded
}

func withVerb(err error, verb string) error {
	var derr *dogerr.Error
	if errors.As(err, &derr) && derr.Verb == "" {
		derr.Verb = verb
	}
	return err
}
