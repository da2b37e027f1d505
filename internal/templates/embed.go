package templates

import (
	"embed"
	"io/fs"
)

//go:embed builtin
var builtinFS embed.FS

// Builtin returns the templates shipped inside the binary, rooted so that
// template IDs do not carry the "builtin/" prefix.
func Builtin() fs.FS {
	sub, err := fs.Sub(builtinFS, "builtin")
	if err != nil {
		panic("templates: builtin directory missing from embed: " + err.Error())
	}
	return sub
}

// LoadBuiltin loads the embedded templates, followed by any overlay layers.
func LoadBuiltin(overlays ...fs.FS) (*Store, error) {
	return Load(append([]fs.FS{Builtin()}, overlays...)...)
}
