// Package cli defines the Cobra command tree for the dog CLI. Each command
// file registers one top-level command (init, define, register, list, diff,
// regen, doctor, config, version) with the root command. Commands delegate
// to the registry and the generation orchestrator and only handle flag
// parsing and output formatting.
package cli
