// Package bootstrap is the generation orchestrator. A run plans a set of
// registered verbs, resolves every target, renders every artifact in memory,
// compares the result with what is on disk and only then writes. Running the
// tool's own verbs against its own source tree is an ordinary run with the
// self policy; two consecutive runs over an unchanged registry leave every
// artifact stable.
package bootstrap
