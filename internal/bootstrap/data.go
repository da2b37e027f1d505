package bootstrap

import (
	"github.com/dogfold-labs/dogfold/internal/registry"
	"github.com/dogfold-labs/dogfold/internal/resolve"
	"github.com/dogfold-labs/dogfold/internal/templates"
)

// verbData returns the variables derived from the verb alone. They are also
// the bindings available to {placeholders} in explicit target paths.
//
//	name        install
//	domain      tools
//	verb        tools.install
//	type_name   Install
//	class_name  InstallVerb
//	file_name   install
//	module      example.com/demo (only when the root has a go.mod)
func verbData(v *registry.Verb, module string) map[string]string {
	d := map[string]string{
		"name":       v.ID,
		"domain":     v.Domain,
		"verb":       v.Qualified(),
		"type_name":  templates.Pascal(v.ID),
		"class_name": templates.Pascal(v.ID) + "Verb",
		"file_name":  templates.Snake(v.ID),
	}
	if module != "" {
		d["module"] = module
	}
	return d
}

// targetData adds the variables that depend on where the artifact lands.
func targetData(d map[string]string, t *resolve.Target) map[string]string {
	d["package"] = t.PackageName
	if t.Package != "" {
		d["import_path"] = t.Package
	}
	return d
}

// merge returns the overrides laid on top of base, without changing either.
func merge(base, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// TemplateChooser is the part of the template store needed to pick a
// template for a new verb.
type TemplateChooser interface {
	Has(ref string) bool
}

// DefaultTemplate picks the template for a new verb: "verbs/<id>.go" when
// the store has one, the generic "verb.go" otherwise.
func DefaultTemplate(store TemplateChooser, id string) string {
	if specific := "verbs/" + templates.Snake(id) + ".go"; store.Has(specific) {
		return specific
	}
	return "verb.go"
}
