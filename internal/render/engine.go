package render

import (
	"bytes"
	"text/template"

	"github.com/dogfold-labs/dogfold/internal/dogerr"
	"github.com/dogfold-labs/dogfold/internal/templates"
)

// Engine renders templates from a store.
type Engine struct {
	store    *templates.Store
	strict   bool
	declared []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrict makes caller overrides that no template in the closure declares
// an error instead of being ignored.
func WithStrict(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// WithDeclared widens the set of names strict mode accepts to every name in
// names. Callers rendering a batch pass the union of the batch's declared
// variables so an override used by any template of the batch is accepted.
func WithDeclared(names []string) Option {
	return func(e *Engine) { e.declared = names }
}

// NewEngine returns an Engine backed by store.
func NewEngine(store *templates.Store, opts ...Option) *Engine {
	e := &Engine{store: store}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Prepare returns a copy of ctx with the front matter defaults of t and its
// includes applied at default precedence.
func (e *Engine) Prepare(t *templates.Template, ctx *Context) (*Context, error) {
	closure, err := e.store.Closure(t)
	if err != nil {
		return nil, err
	}
	out := ctx.Clone()
	for _, c := range closure {
		out.SetAll(c.Defaults, SourceDefault)
	}
	return out, nil
}

// Render produces the text of t for ctx. Output depends only on the template
// sources and the bound values.
func (e *Engine) Render(t *templates.Template, ctx *Context) (string, error) {
	const op = "render"

	closure, err := e.store.Closure(t)
	if err != nil {
		return "", err
	}
	bound, err := e.Prepare(t, ctx)
	if err != nil {
		return "", err
	}

	required, err := e.store.RequiredVariables(t)
	if err != nil {
		return "", err
	}
	var missing []string
	for _, name := range required {
		if _, ok := bound.Get(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", dogerr.Templatef(op, "template %s is missing %d binding(s)", t.Ref(), len(missing)).
			WithReason(dogerr.ReasonMissingVariables).WithPath(t.ID).WithVariables(missing)
	}

	if e.strict {
		var unknown []string
		for _, name := range bound.From(SourceOverride) {
			if !contains(required, name) && !contains(e.declared, name) {
				unknown = append(unknown, name)
			}
		}
		if len(unknown) > 0 {
			if len(e.declared) > 0 {
				return "", dogerr.Validationf(op, "no template in the batch declares %d supplied variable(s)", len(unknown)).
					WithReason(dogerr.ReasonUnknownVariables).WithPath(t.ID).WithVariables(unknown)
			}
			return "", dogerr.Validationf(op, "template %s does not declare %d supplied variable(s)", t.Ref(), len(unknown)).
				WithReason(dogerr.ReasonUnknownVariables).WithPath(t.ID).WithVariables(unknown)
		}
	}

	set, err := compile(closure)
	if err != nil {
		return "", dogerr.Templatef(op, "compiling %s", t.Ref()).
			WithReason(dogerr.ReasonSyntax).WithPath(t.ID).Wrap(err)
	}
	var buf bytes.Buffer
	if err := set.Execute(&buf, bound.Values()); err != nil {
		return "", dogerr.Templatef(op, "executing %s", t.Ref()).
			WithReason(dogerr.ReasonSyntax).WithPath(t.ID).Wrap(err)
	}
	return buf.String(), nil
}

// compile parses the closure into one template set whose root is closure[0].
func compile(closure []*templates.Template) (*template.Template, error) {
	root := template.New(closure[0].ID).Funcs(templates.FuncMap()).Option("missingkey=error")
	if _, err := root.Parse(closure[0].Source); err != nil {
		return nil, err
	}
	for _, inc := range closure[1:] {
		if _, err := root.New(inc.ID).Parse(inc.Source); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func contains(names []string, s string) bool {
	for _, v := range names {
		if v == s {
			return true
		}
	}
	return false
}
