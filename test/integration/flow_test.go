//go:build integration

package integration_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/dogfold-labs/dogfold/internal/artifact"
	"github.com/dogfold-labs/dogfold/internal/bootstrap"
	"github.com/dogfold-labs/dogfold/internal/branding"
	"github.com/dogfold-labs/dogfold/internal/resolve"
	"github.com/dogfold-labs/dogfold/internal/watch"
)

// TestRegisterGenerateReopen registers through one registry handle, generates,
// then checks that a fresh handle over the same manifest converges.
func TestRegisterGenerateReopen(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, "example.com/demo")

	reg := env.openRegistry(t)
	if _, err := reg.RegisterDomain(ctx, "tools", ""); err != nil {
		t.Fatalf("RegisterDomain: %v", err)
	}
	pkg := resolve.Policy{Kind: resolve.KindPackageConvention}
	for _, id := range []string{"install", "remove"} {
		if _, err := reg.Register(ctx, "tools", id, "verb.go", pkg, "1.0.0"); err != nil {
			t.Fatalf("Register(%s): %v", id, err)
		}
	}

	first := env.run(t, bootstrap.Request{Domains: []string{"tools"}})
	if first.Count(bootstrap.OutcomeWritten) != 2 {
		t.Fatalf("first run: %+v", first.Results)
	}
	path := filepath.Join(env.ProjectDir, "internal", "tools", "remove.go")
	assertFileExists(t, path)
	assertFileContains(t, path, "type RemoveVerb struct{}")
	assertFileContains(t, path, "// dog:generated verb=tools.remove version=1.0.0")

	ledger, err := artifact.LoadLedger(afero.NewOsFs(), branding.StatePath(env.ProjectDir, artifact.LedgerFile))
	if err != nil {
		t.Fatalf("LoadLedger: %v", err)
	}
	if ledger.RunID != first.RunID || len(ledger.Entries) != 2 {
		t.Errorf("ledger = %+v, want two entries from run %s", ledger, first.RunID)
	}

	second := env.run(t, bootstrap.Request{})
	if !second.Converged() || len(second.Results) != 2 {
		t.Errorf("second run outcomes: %+v", second.Results)
	}
}

// TestSelfRegeneration runs the generator's own verbs against a tree that
// declares the generator's module.
func TestSelfRegeneration(t *testing.T) {
	env := setupTestEnv(t, branding.GoModule())

	first := env.run(t, bootstrap.Request{Self: true})
	if first.Count(bootstrap.OutcomeWritten) != len(first.Results) || len(first.Results) == 0 {
		t.Fatalf("first run: %+v", first.Results)
	}
	assertFileContains(t, filepath.Join(env.ProjectDir, "internal", "verbs", "define.go"), "package verbs")

	second := env.run(t, bootstrap.Request{Self: true})
	if !second.Converged() {
		t.Errorf("self regeneration did not converge: %+v", second.Results)
	}
}

// TestConcurrentHandlesShareManifest registers from several handles at once
// and expects every verb in the manifest afterwards.
func TestConcurrentHandlesShareManifest(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, "example.com/demo")
	if _, err := env.openRegistry(t).RegisterDomain(ctx, "tools", ""); err != nil {
		t.Fatal(err)
	}

	ids := []string{"a", "b", "c", "d", "e", "f"}
	var wg sync.WaitGroup
	errs := make(chan error, len(ids))
	for _, id := range ids {
		reg := env.openRegistry(t)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Register(ctx, "tools", id, "verb.go", resolve.Policy{Kind: resolve.KindPackageConvention}, "1.0.0")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("Register: %v", err)
		}
	}

	got := 0
	for range env.openRegistry(t).List("tools", false) {
		got++
	}
	if got != len(ids) {
		t.Errorf("manifest holds %d tools verbs, want %d", got, len(ids))
	}
}

// TestWatchSignalsRegistryChange expects a debounced signal after a
// registration rewrites the manifest.
func TestWatchSignalsRegistryChange(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, "example.com/demo")
	reg := env.openRegistry(t)
	if err := reg.Flush(ctx); err != nil {
		t.Fatal(err)
	}

	w, err := watch.New(watch.Config{Files: []string{reg.Path()}, Debounce: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("watch.New: %v", err)
	}
	defer w.Stop()
	changes, err := w.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := reg.RegisterDomain(ctx, "tools", ""); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change signal after the manifest was rewritten")
	}
}
