//go:build integration

package integration_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dogfold-labs/dogfold/internal/bootstrap"
	"github.com/dogfold-labs/dogfold/internal/branding"
	"github.com/dogfold-labs/dogfold/internal/registry"
	"github.com/dogfold-labs/dogfold/internal/templates"
)

// testEnv holds an isolated home and project tree.
type testEnv struct {
	HomeDir    string // HOME, so user config never leaks in
	ProjectDir string // root handed to every run
	Store      *templates.Store
}

// setupTestEnv creates a project whose go.mod declares module.
func setupTestEnv(t *testing.T, module string) *testEnv {
	t.Helper()

	env := &testEnv{HomeDir: t.TempDir(), ProjectDir: t.TempDir()}
	t.Setenv("HOME", env.HomeDir)
	writeFile(t, filepath.Join(env.ProjectDir, "go.mod"), "module "+module+"\n\ngo 1.25\n")

	store, err := templates.LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin: %v", err)
	}
	env.Store = store
	return env
}

// openRegistry opens the project's on-disk registry.
func (e *testEnv) openRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.Open(context.Background(), branding.RegistryPath(e.ProjectDir), registry.WithTemplates(e.Store))
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	return reg
}

// run executes req against the project with a freshly opened registry.
func (e *testEnv) run(t *testing.T, req bootstrap.Request) *bootstrap.Summary {
	t.Helper()
	req.Root = e.ProjectDir
	summary, err := bootstrap.New(e.openRegistry(t), e.Store).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return summary
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected file to exist: %s (%v)", path, err)
		return
	}
	if info.IsDir() {
		t.Errorf("expected file, got directory: %s", path)
	}
}

func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	if content := readFile(t, path); !strings.Contains(content, substr) {
		t.Errorf("file %s does not contain %q\ncontent:\n%s", path, substr, content)
	}
}
