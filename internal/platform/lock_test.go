package platform

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml.lock")

	lock, err := AcquireLock(context.Background(), path, time.Second)
	if err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("second Release() error = %v", err)
	}

	again, err := AcquireLock(context.Background(), path, time.Second)
	if err != nil {
		t.Fatalf("AcquireLock() after release error = %v", err)
	}
	defer again.Release()
}

func TestAcquireLockHonoursContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "busy.lock")
	held, err := AcquireLock(context.Background(), path, time.Second)
	if err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := AcquireLock(ctx, path, 5*time.Second); err == nil {
		t.Fatal("expected second lock on a separate descriptor to fail while held")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("acquisition ignored the context deadline (took %v)", elapsed)
	}
}
