// Package registry is the single source of truth for which domains and verbs
// exist. It is backed by the YAML manifest in the project's state directory:
// Open loads it (seeding from the built-in manifest when absent), every
// registration is applied under an in-process mutex and a cross-process file
// lock, re-validated and written atomically before it becomes visible.
package registry
