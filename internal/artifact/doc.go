// Package artifact owns everything about a generated file once it has been
// rendered: the provenance header stamped on its first line, the content hash
// used for no-op detection, drift inspection of what is already on disk,
// atomic writes and the per-root ledger of last written hashes.
package artifact
