package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrLockBusy is returned by a single lock attempt when another process holds
// the lock.
var ErrLockBusy = errors.New("lock held by another process")

// DefaultLockTimeout bounds lock acquisition when the caller's context has no
// deadline.
const DefaultLockTimeout = 10 * time.Second

// FileLock is an exclusive advisory lock on a file.
type FileLock struct {
	f *os.File
}

func newLockBackoff(timeout time.Duration) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = 250 * time.Millisecond
	bo.MaxElapsedTime = timeout
	return bo
}

// AcquireLock takes an exclusive lock on path, creating the file if needed.
// Busy locks are retried with exponential backoff until timeout elapses or ctx
// is done.
func AcquireLock(ctx context.Context, path string, timeout time.Duration) (*FileLock, error) {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file %s: %w", path, err)
	}

	err = backoff.Retry(func() error {
		err := tryLock(f)
		if errors.Is(err, ErrLockBusy) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(newLockBackoff(timeout), ctx))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("acquiring lock %s: %w", path, err)
	}
	return &FileLock{f: f}, nil
}

// Release drops the lock. It is safe to call more than once.
func (l *FileLock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	uerr := unlock(l.f)
	cerr := l.f.Close()
	l.f = nil
	if uerr != nil {
		return fmt.Errorf("releasing lock: %w", uerr)
	}
	return cerr
}
