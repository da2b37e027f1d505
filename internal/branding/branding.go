// Package branding provides compile-time identity values for the CLI.
//
// Forkers edit branding.yaml in this package before building; Go's
// //go:embed bakes it into the binary. GoModule doubles as the identity
// check for self-regeneration: only a tree whose go.mod declares this module
// accepts self targets.
package branding

import (
	_ "embed"
	"path/filepath"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName      string `yaml:"cli_name"`
	DisplayName  string `yaml:"display_name"`
	Description  string `yaml:"description"`
	HomeDir      string `yaml:"home_dir"`
	EnvPrefix    string `yaml:"env_prefix"`
	GoModule     string `yaml:"go_module"`
	GitHubRepo   string `yaml:"github_repo"`
	RegistryFile string `yaml:"registry_file"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:      "dog",
			DisplayName:  "Dogfold",
			Description:  "Registry-driven, self-regenerating scaffolding",
			HomeDir:      ".dogfold",
			EnvPrefix:    "DOGFOLD",
			GoModule:     "github.com/dogfold-labs/dogfold",
			GitHubRepo:   "dogfold-labs/dogfold",
			RegistryFile: "registry.yaml",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "dog").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "Dogfold").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name used both under $HOME and inside
// generated projects (e.g., ".dogfold").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "DOGFOLD").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the tool's own Go module path.
func GoModule() string { load(); return defaults.GoModule }

// GitHubRepo returns the "owner/repo" string.
func GitHubRepo() string { load(); return defaults.GitHubRepo }

// RegistryPath returns the manifest location inside a project root,
// e.g. "<root>/.dogfold/registry.yaml".
func RegistryPath(root string) string {
	load()
	return filepath.Join(root, defaults.HomeDir, defaults.RegistryFile)
}

// StatePath returns a file path inside the project's state directory.
func StatePath(root, name string) string {
	load()
	return filepath.Join(root, defaults.HomeDir, name)
}

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "DOGFOLD_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
