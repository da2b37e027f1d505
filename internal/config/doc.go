// Package config manages user-level settings stored at ~/.dogfold/config.yaml
// and DOGFOLD_* environment variables: how generation treats existing and
// hand-edited files, strict variable checking, batch atomicity and where the
// registry and template overlays live.
package config
