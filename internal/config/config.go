package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/dogfold-labs/dogfold/internal/branding"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Keys understood by the tool.
const (
	KeyOnDrift         = "on_drift"
	KeyOnExists        = "on_exists"
	KeyStrictVariables = "strict_variables"
	KeyBatchAtomic     = "batch_atomic"
	KeyRegistry        = "registry"
	KeyTemplates       = "templates"
	KeySelfRoot        = "self_root"
)

// allowed lists the accepted values of enumerated keys.
var allowed = map[string][]string{
	KeyOnDrift:         {"refuse", "warn", "overwrite"},
	KeyOnExists:        {"skip", "error", "overwrite"},
	KeyStrictVariables: {"true", "false"},
	KeyBatchAtomic:     {"true", "false"},
}

var defaults = map[string]any{
	KeyOnDrift:         "refuse",
	KeyOnExists:        "skip",
	KeyStrictVariables: false,
	KeyBatchAtomic:     true,
}

// Settings is the typed view of the configuration.
type Settings struct {
	OnDrift         string
	OnExists        string
	StrictVariables bool
	BatchAtomic     bool
	Registry        string // manifest path override; "" uses <root>/.dogfold/registry.yaml
	Templates       string // template overlay directory; "" uses the built-ins only
	SelfRoot        string // the tool's own source tree for regen; "" uses the working directory
}

// Dir returns the path to the config directory (~/.dogfold/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.dogfold/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Keys returns every known key, sorted.
func Keys() []string {
	keys := []string{KeyOnDrift, KeyOnExists, KeyStrictVariables, KeyBatchAtomic, KeyRegistry, KeyTemplates, KeySelfRoot}
	sort.Strings(keys)
	return keys
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Current returns the typed settings.
func Current() Settings {
	return Settings{
		OnDrift:         strings.ToLower(viper.GetString(KeyOnDrift)),
		OnExists:        strings.ToLower(viper.GetString(KeyOnExists)),
		StrictVariables: viper.GetBool(KeyStrictVariables),
		BatchAtomic:     viper.GetBool(KeyBatchAtomic),
		Registry:        viper.GetString(KeyRegistry),
		Templates:       viper.GetString(KeyTemplates),
		SelfRoot:        viper.GetString(KeySelfRoot),
	}
}

// Validate checks key and value without storing anything.
func Validate(key, value string) error {
	if !slices.Contains(Keys(), key) {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	if values, ok := allowed[key]; ok && !slices.Contains(values, strings.ToLower(value)) {
		return fmt.Errorf("invalid value %q for %s (want %s)", value, key, strings.Join(values, ", "))
	}
	return nil
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := Validate(key, value); err != nil {
		return err
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
