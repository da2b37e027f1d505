// Package manifest handles parsing, writing and validation of the registry
// manifest: the YAML file that durably records every domain and verb the
// registry knows about. Manifests are checked against an embedded JSON Schema
// before they are accepted or written.
package manifest
