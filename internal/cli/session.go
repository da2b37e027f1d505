package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dogfold-labs/dogfold/internal/bootstrap"
	"github.com/dogfold-labs/dogfold/internal/branding"
	"github.com/dogfold-labs/dogfold/internal/config"
	"github.com/dogfold-labs/dogfold/internal/registry"
	"github.com/dogfold-labs/dogfold/internal/templates"
)

// session bundles what a command needs to register and generate in one root.
type session struct {
	root     string
	settings config.Settings
	store    *templates.Store
	reg      *registry.Registry
}

// openSession loads the templates and the registry of root.
func openSession(ctx context.Context, root string) (*session, error) {
	settings := config.Current()

	store, err := loadTemplates(settings)
	if err != nil {
		return nil, err
	}
	reg, err := registry.Open(ctx, registryPath(root, settings),
		registry.WithTemplates(store), registry.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &session{root: root, settings: settings, store: store, reg: reg}, nil
}

func registryPath(root string, settings config.Settings) string {
	switch {
	case flagRegistry != "":
		return flagRegistry
	case settings.Registry != "":
		return settings.Registry
	default:
		return branding.RegistryPath(root)
	}
}

func templatesDir(settings config.Settings) string {
	if flagTemplates != "" {
		return flagTemplates
	}
	return settings.Templates
}

func loadTemplates(settings config.Settings) (*templates.Store, error) {
	var overlays []fs.FS
	if dir := templatesDir(settings); dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("template overlay %s: %w", dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("template overlay %s is not a directory", dir)
		}
		overlays = append(overlays, os.DirFS(dir))
	}
	return templates.LoadBuiltin(overlays...)
}

// orchestrator returns an orchestrator over the session's registry.
func (s *session) orchestrator() *bootstrap.Orchestrator {
	return bootstrap.New(s.reg, s.store, bootstrap.WithLogger(logger))
}

// request returns a run request over the session root carrying the
// configured policies.
func (s *session) request() (bootstrap.Request, error) {
	onDrift, err := bootstrap.ParseDriftPolicy(s.settings.OnDrift)
	if err != nil {
		return bootstrap.Request{}, err
	}
	onExists, err := bootstrap.ParseExistsPolicy(s.settings.OnExists)
	if err != nil {
		return bootstrap.Request{}, err
	}
	return bootstrap.Request{
		Root:            s.root,
		OnDrift:         onDrift,
		OnExists:        onExists,
		Strict:          s.settings.StrictVariables,
		ContinueOnError: !s.settings.BatchAtomic,
	}, nil
}

// rootDir returns the absolute --root.
func rootDir() (string, error) {
	abs, err := filepath.Abs(flagRoot)
	if err != nil {
		return "", fmt.Errorf("resolving root %s: %w", flagRoot, err)
	}
	return abs, nil
}
