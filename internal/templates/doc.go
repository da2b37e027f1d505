// Package templates is the template store. Templates are text/template sources
// with a YAML front matter that declares their version and variables; they are
// loaded once from layered file systems (the embedded built-ins, then an
// optional on-disk overlay), validated against their declared variables, and
// checked for inclusion cycles before any rendering happens.
package templates
