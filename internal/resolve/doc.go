// Package resolve maps a verb's symbolic target policy to a concrete file
// path inside a target root. Three policies exist: self (the tool's own
// source layout), explicit-path (a placeholder path template) and
// package-convention (domain segments become nested Go packages). Every path
// is confined to the root, and ResolveAll rejects plans where two verbs would
// write the same file.
package resolve
