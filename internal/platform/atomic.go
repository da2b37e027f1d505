package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ErrInterrupted reports a write that was cancelled or cut short before the
// target was replaced. The target is left as it was.
var ErrInterrupted = errors.New("write interrupted")

const writeChunk = 32 << 10

// WriteFileAtomic writes data to a temporary file next to path, syncs it and
// renames it over path. The context is checked between chunks so a cancelled
// write never replaces the target. Parent directories are created as needed.
func WriteFileAtomic(ctx context.Context, fsys afero.Fs, path string, data []byte, mode os.FileMode) (err error) {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInterrupted, err)
	}

	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(fsys, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = fsys.Remove(tmpName)
		}
	}()

	for off := 0; off < len(data); off += writeChunk {
		if cerr := ctx.Err(); cerr != nil {
			return fmt.Errorf("%w: %w", ErrInterrupted, cerr)
		}
		end := min(off+writeChunk, len(data))
		n, werr := tmp.Write(data[off:end])
		if werr != nil {
			return fmt.Errorf("writing %s: %w", tmpName, werr)
		}
		if n != end-off {
			return fmt.Errorf("%w: writing %s: %w", ErrInterrupted, tmpName, io.ErrShortWrite)
		}
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err = Chmod(fsys, tmpName, mode); err != nil {
		return fmt.Errorf("setting mode on %s: %w", tmpName, err)
	}
	if cerr := ctx.Err(); cerr != nil {
		err = fmt.Errorf("%w: %w", ErrInterrupted, cerr)
		return err
	}
	if err = fsys.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", tmpName, path, err)
	}
	syncDir(fsys, dir)
	return nil
}

// syncDir flushes the directory entry after a rename. Filesystems that cannot
// open directories for syncing are ignored.
func syncDir(fsys afero.Fs, dir string) {
	d, err := fsys.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
