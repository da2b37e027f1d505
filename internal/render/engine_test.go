package render

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"github.com/dogfold-labs/dogfold/internal/dogerr"
	"github.com/dogfold-labs/dogfold/internal/templates"
)

func mustParse(t testing.TB, id, src string) *templates.Template {
	t.Helper()
	tmpl, err := templates.Parse(id, []byte(src))
	if err != nil {
		t.Fatalf("Parse(%s) error = %v", id, err)
	}
	return tmpl
}

func newStore(t testing.TB, ts ...*templates.Template) *templates.Store {
	t.Helper()
	store, err := templates.FromTemplates(ts...)
	if err != nil {
		t.Fatalf("FromTemplates() error = %v", err)
	}
	return store
}

func TestRender(t *testing.T) {
	header := mustParse(t, "partials/header.go", "---\nversion: 1.0.0\nvariables: [package]\n---\npackage {{.package}}\n")
	verb := mustParse(t, "verb.go",
		"---\nversion: 1.0.0\nvariables: [name, greeting]\ndefaults:\n  greeting: hello\n---\n"+
			"{{template \"partials/header.go\" .}}\n// {{pascal .name}} says {{.greeting}}.\n")
	engine := NewEngine(newStore(t, header, verb))

	ctx := NewContext()
	ctx.Set("name", "install-all", SourceDerived)
	ctx.Set("package", "tool", SourceDerived)

	got, err := engine.Render(verb, ctx)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "package tool\n\n// InstallAll says hello.\n"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}

	ctx.Set("greeting", "hi", SourceOverride)
	got, err = engine.Render(verb, ctx)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if want := "package tool\n\n// InstallAll says hi.\n"; got != want {
		t.Errorf("Render() with override = %q, want %q", got, want)
	}
}

func TestRenderReportsEveryMissingVariable(t *testing.T) {
	leaf := mustParse(t, "leaf", "---\nversion: 1.0.0\nvariables: [zeta, alpha]\n---\n{{.zeta}}{{.alpha}}\n")
	mid := mustParse(t, "mid", "---\nversion: 1.0.0\nvariables: [mu]\n---\n{{.mu}}{{template \"leaf\" .}}\n")
	top := mustParse(t, "top", "---\nversion: 1.0.0\nvariables: [name, beta]\n---\n{{.name}}{{.beta}}{{template \"mid\" .}}\n")
	engine := NewEngine(newStore(t, leaf, mid, top))

	ctx := NewContext()
	ctx.Set("name", "x", SourceDerived)

	_, err := engine.Render(top, ctx)
	if !errors.Is(err, dogerr.ErrTemplate) {
		t.Fatalf("Render() error = %v, want template error", err)
	}
	var derr *dogerr.Error
	if !errors.As(err, &derr) {
		t.Fatal("expected *dogerr.Error")
	}
	if derr.Reason != dogerr.ReasonMissingVariables {
		t.Errorf("Reason = %q", derr.Reason)
	}
	if diff := cmp.Diff([]string{"alpha", "beta", "mu", "zeta"}, derr.Variables); diff != "" {
		t.Errorf("missing variables mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderStrict(t *testing.T) {
	tmpl := mustParse(t, "a.txt", "---\nversion: 1.0.0\nvariables: [name]\n---\n{{.name}}\n")
	store := newStore(t, tmpl)

	ctx := NewContext()
	ctx.Set("name", "x", SourceOverride)
	ctx.Set("colour", "red", SourceOverride)
	ctx.Set("module", "example.com/x", SourceDerived)

	if _, err := NewEngine(store).Render(tmpl, ctx); err != nil {
		t.Fatalf("lenient Render() error = %v", err)
	}

	_, err := NewEngine(store, WithStrict(true)).Render(tmpl, ctx)
	if !errors.Is(err, dogerr.ErrValidation) || dogerr.ReasonOf(err) != dogerr.ReasonUnknownVariables {
		t.Fatalf("strict Render() error = %v, want unknown variables", err)
	}
	var derr *dogerr.Error
	errors.As(err, &derr)
	if diff := cmp.Diff([]string{"colour"}, derr.Variables); diff != "" {
		t.Errorf("unknown variables mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderStrictAcceptsBatchDeclarations(t *testing.T) {
	tmpl := mustParse(t, "a.txt", "---\nversion: 1.0.0\nvariables: [name]\n---\n{{.name}}\n")
	store := newStore(t, tmpl)

	ctx := NewContext()
	ctx.Set("name", "x", SourceOverride)
	ctx.Set("module", "example.com/x", SourceOverride)
	ctx.Set("colour", "red", SourceOverride)

	engine := NewEngine(store, WithStrict(true), WithDeclared([]string{"module", "name"}))
	_, err := engine.Render(tmpl, ctx)
	var derr *dogerr.Error
	if !errors.As(err, &derr) || derr.Reason != dogerr.ReasonUnknownVariables {
		t.Fatalf("Render() error = %v, want unknown variables", err)
	}
	if diff := cmp.Diff([]string{"colour"}, derr.Variables); diff != "" {
		t.Errorf("unknown variables mismatch (-want +got):\n%s", diff)
	}

	ctx = NewContext()
	ctx.Set("name", "x", SourceOverride)
	ctx.Set("module", "example.com/x", SourceOverride)
	if _, err := engine.Render(tmpl, ctx); err != nil {
		t.Errorf("Render() with batch variables error = %v", err)
	}
}

func TestRenderDoesNotMutateContext(t *testing.T) {
	tmpl := mustParse(t, "a.txt", "---\nversion: 1.0.0\nvariables: [name]\ndefaults:\n  name: anon\n---\n{{.name}}\n")
	engine := NewEngine(newStore(t, tmpl))
	ctx := NewContext()
	if _, err := engine.Render(tmpl, ctx); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if _, ok := ctx.Get("name"); ok {
		t.Error("Render applied defaults to the caller's context")
	}
}

func TestRenderDeterministic(t *testing.T) {
	part := mustParse(t, "part", "---\nversion: 1.0.0\nvariables: [b]\n---\n[{{.b | upper}}]")
	tmpl := mustParse(t, "main", "---\nversion: 1.0.0\nvariables: [a, b, c]\n---\n{{.a}}-{{template \"part\" .}}-{{snake .c}}\n")
	engine := NewEngine(newStore(t, part, tmpl))

	rapid.Check(t, func(rt *rapid.T) {
		vals := map[string]string{
			"a": rapid.StringMatching(`[a-zA-Z0-9 ._-]{0,12}`).Draw(rt, "a"),
			"b": rapid.StringMatching(`[a-z]{0,8}`).Draw(rt, "b"),
			"c": rapid.StringMatching(`[A-Za-z]{1,10}`).Draw(rt, "c"),
		}
		order := rapid.Permutation([]string{"a", "b", "c"}).Draw(rt, "order")

		first := NewContext()
		first.SetAll(vals, SourceOverride)
		second := NewContext()
		for _, name := range order {
			second.Set(name, vals[name], SourceOverride)
		}

		out1, err := engine.Render(tmpl, first)
		if err != nil {
			rt.Fatalf("Render() error = %v", err)
		}
		out2, err := engine.Render(tmpl, second)
		if err != nil {
			rt.Fatalf("Render() error = %v", err)
		}
		if out1 != out2 {
			rt.Fatalf("outputs differ:\n%q\n%q", out1, out2)
		}
	})
}
