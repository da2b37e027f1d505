// Package dogerr defines the structured error taxonomy shared by the registry,
// target resolver, rendering engine, and generation orchestrator. Every error is
// a single *Error discriminated by Kind (validation, template, filesystem,
// generation) and carrying the verb, path, and variable names needed to act on it.
package dogerr
