package render

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestContextPrecedence(t *testing.T) {
	ctx := NewContext()
	ctx.Set("name", "from-default", SourceDefault)
	if !ctx.Set("name", "from-derived", SourceDerived) {
		t.Error("derived should replace default")
	}
	if !ctx.Set("name", "from-override", SourceOverride) {
		t.Error("override should replace derived")
	}
	if ctx.Set("name", "late-default", SourceDefault) {
		t.Error("default must not replace an override")
	}

	b, ok := ctx.Lookup("name")
	if !ok || b.Value != "from-override" || b.Source != SourceOverride {
		t.Errorf("Lookup() = %+v, %v", b, ok)
	}
	if b.Source.String() != "override" {
		t.Errorf("Source.String() = %q", b.Source)
	}
}

func TestContextViews(t *testing.T) {
	ctx := NewContext()
	ctx.SetAll(map[string]string{"b": "2", "a": "1"}, SourceDerived)
	ctx.Set("c", "3", SourceOverride)

	if diff := cmp.Diff([]string{"a", "b", "c"}, ctx.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c"}, ctx.From(SourceOverride)); diff != "" {
		t.Errorf("From mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"a": "1", "b": "2", "c": "3"}, ctx.Strings()); diff != "" {
		t.Errorf("Strings mismatch (-want +got):\n%s", diff)
	}

	clone := ctx.Clone()
	clone.Set("a", "changed", SourceOverride)
	if v, _ := ctx.Get("a"); v != "1" {
		t.Error("Clone shares storage with the original")
	}
}
