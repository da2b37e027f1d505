package templates

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dogfold-labs/dogfold/internal/dogerr"
)

func TestParse(t *testing.T) {
	src := "---\nversion: 1.2.0\ndescription: greeting\nvariables: [name, domain]\ndefaults:\n  domain: tools\nmode: \"0755\"\n---\nhello {{.name}} from {{.domain | upper}}\n"

	tmpl, err := Parse("greet.sh", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if tmpl.Ref() != "greet.sh@1.2.0" {
		t.Errorf("Ref() = %q", tmpl.Ref())
	}
	if tmpl.Ext() != ".sh" {
		t.Errorf("Ext() = %q, want .sh", tmpl.Ext())
	}
	if tmpl.Mode != 0o755 {
		t.Errorf("Mode = %o, want 755", tmpl.Mode)
	}
	if diff := cmp.Diff([]string{"domain", "name"}, tmpl.Variables); diff != "" {
		t.Errorf("Variables mismatch (-want +got):\n%s", diff)
	}
	if tmpl.Source != "hello {{.name}} from {{.domain | upper}}\n" {
		t.Errorf("Source = %q", tmpl.Source)
	}
	if !tmpl.Declares("domain") || tmpl.Declares("year") {
		t.Error("Declares() returned unexpected results")
	}
}

func TestParseReferencedVariables(t *testing.T) {
	src := "---\nversion: 1.0.0\nvariables: [items, title, owner, footer]\n---\n" +
		"{{.title}}\n{{range .items}}{{.Name}} {{$.owner}}{{end}}\n{{with .footer}}{{.}}{{end}}\n"

	tmpl, err := Parse("list.txt", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []string{"footer", "items", "owner", "title"}
	if diff := cmp.Diff(want, tmpl.Referenced()); diff != "" {
		t.Errorf("Referenced mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsUndeclared(t *testing.T) {
	src := "---\nversion: 1.0.0\nvariables: [name]\n---\n{{.name}} {{.year}} {{.author}}\n"

	_, err := Parse("license.txt", []byte(src))
	if !errors.Is(err, dogerr.ErrTemplate) {
		t.Fatalf("Parse() error = %v, want template error", err)
	}
	var derr *dogerr.Error
	if !errors.As(err, &derr) {
		t.Fatal("expected *dogerr.Error")
	}
	if derr.Reason != dogerr.ReasonUndeclared {
		t.Errorf("Reason = %q, want %q", derr.Reason, dogerr.ReasonUndeclared)
	}
	if diff := cmp.Diff([]string{"author", "year"}, derr.Variables); diff != "" {
		t.Errorf("Variables mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		reason dogerr.Reason
	}{
		{"no front matter", "hello\n", dogerr.ReasonSyntax},
		{"unterminated", "---\nversion: 1.0.0\nhello\n", dogerr.ReasonSyntax},
		{"no version", "---\nvariables: [a]\n---\n{{.a}}\n", dogerr.ReasonSyntax},
		{"bad version", "---\nversion: one\n---\nx\n", dogerr.ReasonSyntax},
		{"bad mode", "---\nversion: 1.0.0\nmode: rwx\n---\nx\n", dogerr.ReasonSyntax},
		{"malformed action", "---\nversion: 1.0.0\n---\n{{.a\n", dogerr.ReasonSyntax},
		{"define block", "---\nversion: 1.0.0\n---\n{{define \"x\"}}y{{end}}\n", dogerr.ReasonSyntax},
		{"include without dot", "---\nversion: 1.0.0\n---\n{{template \"other\"}}\n", dogerr.ReasonSyntax},
		{"include inside range", "---\nversion: 1.0.0\nvariables: [xs]\n---\n{{range .xs}}{{template \"other\" .}}{{end}}\n", dogerr.ReasonSyntax},
		{"default for undeclared", "---\nversion: 1.0.0\ndefaults:\n  a: b\n---\nx\n", dogerr.ReasonUndeclared},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.txt", []byte(tt.src))
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if !errors.Is(err, dogerr.ErrTemplate) {
				t.Errorf("Parse() error = %v, want template error", err)
			}
			if got := dogerr.ReasonOf(err); got != tt.reason {
				t.Errorf("ReasonOf() = %q, want %q", got, tt.reason)
			}
		})
	}
}

func TestParseEmptyFrontMatterNeedsVersion(t *testing.T) {
	_, err := Parse("x.txt", []byte("---\n---\nbody\n"))
	if err == nil {
		t.Fatal("expected missing version error")
	}
}

func TestParseIncludes(t *testing.T) {
	src := "---\nversion: 1.0.0\n---\n{{template \"b\" .}}{{template \"a\" .}}{{template \"b\" .}}\n"
	tmpl, err := Parse("main.txt", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff([]string{"b", "a"}, tmpl.Includes); diff != "" {
		t.Errorf("Includes mismatch (-want +got):\n%s", diff)
	}
}
