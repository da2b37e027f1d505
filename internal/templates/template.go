package templates

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"text/template/parse"

	"github.com/Masterminds/semver/v3"
	"go.yaml.in/yaml/v3"

	"github.com/dogfold-labs/dogfold/internal/dogerr"
)

// Extension is the file suffix that marks a template source.
const Extension = ".tmpl"

const frontMatterDelim = "---"

// Template is an immutable, validated unit of generatable text.
type Template struct {
	ID          string            // e.g. "verbs/define.go"
	Version     *semver.Version   // e.g. 1.0.0
	Description string            // optional
	Source      string            // body after the front matter
	Variables   []string          // declared variable names, sorted
	Includes    []string          // included template IDs, in first-use order
	Defaults    map[string]string // default bindings for declared variables
	Mode        os.FileMode       // file mode for rendered artifacts

	referenced []string
}

// frontMatter is the YAML header every template source starts with.
type frontMatter struct {
	ID          string            `yaml:"id,omitempty"`
	Version     string            `yaml:"version"`
	Description string            `yaml:"description,omitempty"`
	Variables   []string          `yaml:"variables,omitempty"`
	Defaults    map[string]string `yaml:"defaults,omitempty"`
	Mode        string            `yaml:"mode,omitempty"`
}

// Ref returns the fully pinned reference "id@version".
func (t *Template) Ref() string {
	return t.ID + "@" + t.Version.String()
}

// Ext returns the extension of the generated artifact, e.g. ".go".
func (t *Template) Ext() string {
	return path.Ext(t.ID)
}

// Referenced returns the variables the source actually references, sorted.
func (t *Template) Referenced() []string {
	return append([]string(nil), t.referenced...)
}

// Declares reports whether name is a declared variable.
func (t *Template) Declares(name string) bool {
	i := sort.SearchStrings(t.Variables, name)
	return i < len(t.Variables) && t.Variables[i] == name
}

// Parse builds a Template from raw source. id is used when the front matter
// does not name one.
func Parse(id string, raw []byte) (*Template, error) {
	const op = "templates.parse"

	fm, body, err := splitFrontMatter(raw)
	if err != nil {
		return nil, dogerr.Templatef(op, "%v", err).WithReason(dogerr.ReasonSyntax).WithPath(id)
	}

	var meta frontMatter
	if err := yaml.Unmarshal(fm, &meta); err != nil {
		return nil, dogerr.Templatef(op, "parsing front matter").
			WithReason(dogerr.ReasonSyntax).WithPath(id).Wrap(err)
	}
	if meta.ID != "" {
		id = meta.ID
	}
	if strings.TrimSpace(meta.Version) == "" {
		return nil, dogerr.Templatef(op, "front matter is missing a version").
			WithReason(dogerr.ReasonSyntax).WithPath(id)
	}
	version, err := semver.NewVersion(meta.Version)
	if err != nil {
		return nil, dogerr.Templatef(op, "invalid version %q", meta.Version).
			WithReason(dogerr.ReasonSyntax).WithPath(id).Wrap(err)
	}

	mode := os.FileMode(0o644)
	if meta.Mode != "" {
		m, err := strconv.ParseUint(meta.Mode, 8, 32)
		if err != nil {
			return nil, dogerr.Templatef(op, "invalid mode %q", meta.Mode).
				WithReason(dogerr.ReasonSyntax).WithPath(id).Wrap(err)
		}
		mode = os.FileMode(m)
	}

	parsed, err := template.New(id).Funcs(FuncMap()).Option("missingkey=error").Parse(string(body))
	if err != nil {
		return nil, dogerr.Templatef(op, "malformed template").
			WithReason(dogerr.ReasonSyntax).WithPath(id).Wrap(err)
	}
	for _, defined := range parsed.Templates() {
		if defined.Name() != id {
			return nil, dogerr.Templatef(op, "define block %q is not allowed; use a separate template", defined.Name()).
				WithReason(dogerr.ReasonSyntax).WithPath(id)
		}
	}

	refs := newRefs()
	if parsed.Tree != nil {
		refs.list(parsed.Tree.Root, true)
	}
	if len(refs.badIncludes) > 0 {
		return nil, dogerr.Templatef(op, "includes %s must pass the root context as {{template %q .}}",
			strings.Join(refs.badIncludes, ", "), refs.badIncludes[0]).
			WithReason(dogerr.ReasonSyntax).WithPath(id)
	}

	declared := dedupeSorted(meta.Variables)
	referenced := refs.sortedVars()

	var undeclared []string
	for _, name := range referenced {
		if !contains(declared, name) {
			undeclared = append(undeclared, name)
		}
	}
	if len(undeclared) > 0 {
		return nil, dogerr.Templatef(op, "template references undeclared variables").
			WithReason(dogerr.ReasonUndeclared).WithPath(id).WithVariables(undeclared)
	}

	for name := range meta.Defaults {
		if !contains(declared, name) {
			return nil, dogerr.Templatef(op, "default for undeclared variable %q", name).
				WithReason(dogerr.ReasonUndeclared).WithPath(id).WithVariables([]string{name})
		}
	}

	return &Template{
		ID:          id,
		Version:     version,
		Description: meta.Description,
		Source:      string(body),
		Variables:   declared,
		Includes:    refs.includes,
		Defaults:    meta.Defaults,
		Mode:        mode,
		referenced:  referenced,
	}, nil
}

// splitFrontMatter separates the YAML header from the template body.
func splitFrontMatter(raw []byte) ([]byte, []byte, error) {
	text := bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(text, []byte(frontMatterDelim+"\n")) {
		return nil, nil, fmt.Errorf("missing %q front matter header", frontMatterDelim)
	}
	rest := text[len(frontMatterDelim)+1:]
	if bytes.HasPrefix(rest, []byte(frontMatterDelim+"\n")) {
		return nil, rest[len(frontMatterDelim)+1:], nil
	}

	end := bytes.Index(rest, []byte("\n"+frontMatterDelim+"\n"))
	if end < 0 {
		if bytes.HasSuffix(rest, []byte("\n"+frontMatterDelim)) {
			return rest[:len(rest)-len(frontMatterDelim)-1], nil, nil
		}
		return nil, nil, fmt.Errorf("unterminated front matter")
	}
	return rest[:end], rest[end+len(frontMatterDelim)+2:], nil
}

// refs collects root-context variable references and inclusions from a parse tree.
type refs struct {
	vars        map[string]struct{}
	includes    []string
	seenInclude map[string]bool
	badIncludes []string
}

func newRefs() *refs {
	return &refs{vars: map[string]struct{}{}, seenInclude: map[string]bool{}}
}

// list walks a list node. root is false once dot has been rebound by range/with.
func (r *refs) list(n *parse.ListNode, root bool) {
	if n == nil {
		return
	}
	for _, child := range n.Nodes {
		r.node(child, root)
	}
}

func (r *refs) node(n parse.Node, root bool) {
	switch n := n.(type) {
	case *parse.ListNode:
		r.list(n, root)
	case *parse.ActionNode:
		r.pipe(n.Pipe, root)
	case *parse.IfNode:
		r.pipe(n.Pipe, root)
		r.list(n.List, root)
		r.list(n.ElseList, root)
	case *parse.RangeNode:
		r.pipe(n.Pipe, root)
		r.list(n.List, false)
		r.list(n.ElseList, root)
	case *parse.WithNode:
		r.pipe(n.Pipe, root)
		r.list(n.List, false)
		r.list(n.ElseList, root)
	case *parse.TemplateNode:
		if !r.seenInclude[n.Name] {
			r.seenInclude[n.Name] = true
			r.includes = append(r.includes, n.Name)
		}
		if !root || !isDotPipe(n.Pipe) {
			r.badIncludes = append(r.badIncludes, n.Name)
		}
	}
}

func (r *refs) pipe(p *parse.PipeNode, root bool) {
	if p == nil {
		return
	}
	for _, cmd := range p.Cmds {
		for _, arg := range cmd.Args {
			r.arg(arg, root)
		}
	}
}

func (r *refs) arg(n parse.Node, root bool) {
	switch n := n.(type) {
	case *parse.FieldNode:
		if root && len(n.Ident) > 0 {
			r.vars[n.Ident[0]] = struct{}{}
		}
	case *parse.VariableNode:
		if len(n.Ident) > 1 && n.Ident[0] == "$" {
			r.vars[n.Ident[1]] = struct{}{}
		}
	case *parse.ChainNode:
		r.arg(n.Node, root)
	case *parse.PipeNode:
		r.pipe(n, root)
	}
}

func (r *refs) sortedVars() []string {
	out := make([]string, 0, len(r.vars))
	for name := range r.vars {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func isDotPipe(p *parse.PipeNode) bool {
	if p == nil || len(p.Decl) > 0 || len(p.Cmds) != 1 || len(p.Cmds[0].Args) != 1 {
		return false
	}
	_, ok := p.Cmds[0].Args[0].(*parse.DotNode)
	return ok
}

func dedupeSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func contains(sorted []string, s string) bool {
	i := sort.SearchStrings(sorted, s)
	return i < len(sorted) && sorted[i] == s
}
