package templates

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/dogfold-labs/dogfold/internal/dogerr"
)

// Store holds every loaded template keyed by identifier and version. It is
// read-only once Load returns.
type Store struct {
	byID map[string][]*Template // versions in ascending order
}

// Load reads every *.tmpl file from the given layers, later layers adding
// templates or new versions on top of earlier ones, then validates the
// inclusion graph. Re-publishing an identifier+version with different content
// is rejected.
func Load(layers ...fs.FS) (*Store, error) {
	s := &Store{byID: make(map[string][]*Template)}
	for i, layer := range layers {
		if layer == nil {
			continue
		}
		if err := s.loadLayer(layer); err != nil {
			return nil, fmt.Errorf("loading template layer %d: %w", i, err)
		}
	}
	if err := s.validateGraph(); err != nil {
		return nil, err
	}
	return s, nil
}

// FromTemplates builds a Store from already parsed templates. Used by tests
// and by callers that construct templates in memory.
func FromTemplates(ts ...*Template) (*Store, error) {
	s := &Store{byID: make(map[string][]*Template)}
	for _, t := range ts {
		if err := s.add(t); err != nil {
			return nil, err
		}
	}
	if err := s.validateGraph(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loadLayer(layer fs.FS) error {
	return fs.WalkDir(layer, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, Extension) {
			return nil
		}
		raw, err := fs.ReadFile(layer, p)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", p, err)
		}
		t, err := Parse(strings.TrimSuffix(path.Clean(p), Extension), raw)
		if err != nil {
			return err
		}
		return s.add(t)
	})
}

func (s *Store) add(t *Template) error {
	versions := s.byID[t.ID]
	for _, existing := range versions {
		if !existing.Version.Equal(t.Version) {
			continue
		}
		if existing.Source == t.Source && strings.Join(existing.Variables, ",") == strings.Join(t.Variables, ",") {
			return nil
		}
		return dogerr.Validationf("templates.load", "template %s is already published with different content; bump its version", t.Ref()).
			WithReason(dogerr.ReasonRedefinition).WithPath(t.ID)
	}
	versions = append(versions, t)
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version.LessThan(versions[j].Version) })
	s.byID[t.ID] = versions
	return nil
}

// Get resolves a reference of the form "id", "id@1.2.0" or "id@^1.2". A bare
// id or a constraint selects the highest matching version.
func (s *Store) Get(ref string) (*Template, error) {
	const op = "templates.get"

	id, want, _ := strings.Cut(strings.TrimSpace(ref), "@")
	versions := s.byID[id]
	if len(versions) == 0 {
		return nil, dogerr.Validationf(op, "template %q not found", id).
			WithReason(dogerr.ReasonNotFound).WithPath(id)
	}
	if want == "" {
		return versions[len(versions)-1], nil
	}

	if exact, err := semver.StrictNewVersion(strings.TrimPrefix(want, "v")); err == nil {
		for _, t := range versions {
			if t.Version.Equal(exact) {
				return t, nil
			}
		}
		return nil, dogerr.Validationf(op, "template %q has no version %s", id, exact).
			WithReason(dogerr.ReasonNotFound).WithPath(id)
	}

	constraint, err := semver.NewConstraint(want)
	if err != nil {
		return nil, dogerr.Validationf(op, "invalid version %q in template reference %q", want, ref).
			WithPath(id).Wrap(err)
	}
	for i := len(versions) - 1; i >= 0; i-- {
		if constraint.Check(versions[i].Version) {
			return versions[i], nil
		}
	}
	return nil, dogerr.Validationf(op, "template %q has no version matching %s", id, want).
		WithReason(dogerr.ReasonNotFound).WithPath(id)
}

// Has reports whether ref resolves.
func (s *Store) Has(ref string) bool {
	_, err := s.Get(ref)
	return err == nil
}

// List returns every template ordered by identifier then version.
func (s *Store) List() []*Template {
	ids := make([]string, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []*Template
	for _, id := range ids {
		out = append(out, s.byID[id]...)
	}
	return out
}

// Closure returns t followed by every template it transitively includes,
// depth-first, each once. Includes resolve to their latest version.
func (s *Store) Closure(t *Template) ([]*Template, error) {
	var out []*Template
	seen := map[string]bool{}
	var visit func(*Template) error
	visit = func(cur *Template) error {
		if seen[cur.ID] {
			return nil
		}
		seen[cur.ID] = true
		out = append(out, cur)
		for _, inc := range cur.Includes {
			child, err := s.Get(inc)
			if err != nil {
				return dogerr.Templatef("templates.closure", "template %s includes unknown template %q", cur.Ref(), inc).
					WithReason(dogerr.ReasonNotFound).WithPath(cur.ID).Wrap(err)
			}
			if err := visit(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(t); err != nil {
		return nil, err
	}
	return out, nil
}

// RequiredVariables returns the sorted union of variables declared by t and
// everything it includes.
func (s *Store) RequiredVariables(t *Template) ([]string, error) {
	closure, err := s.Closure(t)
	if err != nil {
		return nil, err
	}
	var all []string
	for _, c := range closure {
		all = append(all, c.Variables...)
	}
	return dedupeSorted(all), nil
}

// validateGraph builds the inclusion graph over template identifiers and
// rejects unknown includes and cycles before any render is attempted.
func (s *Store) validateGraph() error {
	const op = "templates.graph"

	edges := make(map[string][]string, len(s.byID))
	ids := make([]string, 0, len(s.byID))
	for id, versions := range s.byID {
		ids = append(ids, id)
		seen := map[string]bool{}
		for _, t := range versions {
			for _, inc := range t.Includes {
				if _, ok := s.byID[inc]; !ok {
					return dogerr.Templatef(op, "template %s includes unknown template %q", t.Ref(), inc).
						WithReason(dogerr.ReasonNotFound).WithPath(t.ID)
				}
				if !seen[inc] {
					seen[inc] = true
					edges[id] = append(edges[id], inc)
				}
			}
		}
	}
	sort.Strings(ids)

	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(ids))
	var stack []string
	var visit func(string) error
	visit = func(id string) error {
		color[id] = grey
		stack = append(stack, id)
		for _, next := range edges[id] {
			switch color[next] {
			case grey:
				start := 0
				for i, s := range stack {
					if s == next {
						start = i
						break
					}
				}
				cycle := append(append([]string(nil), stack[start:]...), next)
				return dogerr.Templatef(op, "circular inclusion: %s", strings.Join(cycle, " -> ")).
					WithReason(dogerr.ReasonCircularInclusion).WithPath(next)
			case white:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}
	for _, id := range ids {
		if color[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}
