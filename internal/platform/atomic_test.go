package platform

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// shortFs hands out files whose writes stop after limit bytes.
type shortFs struct {
	afero.Fs
	limit int
}

func (s shortFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := s.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &shortFile{File: f, left: s.limit}, nil
}

type shortFile struct {
	afero.File
	left int
}

func (f *shortFile) Write(p []byte) (int, error) {
	if len(p) > f.left {
		n, err := f.File.Write(p[:f.left])
		f.left = 0
		if err != nil {
			return n, err
		}
		return n, nil
	}
	f.left -= len(p)
	return f.File.Write(p)
}

func listDir(t *testing.T, fsys afero.Fs, dir string) []string {
	t.Helper()
	infos, err := afero.ReadDir(fsys, dir)
	if err != nil {
		t.Fatalf("ReadDir(%s): %v", dir, err)
	}
	var names []string
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.txt")
	fsys := afero.NewOsFs()

	if err := WriteFileAtomic(context.Background(), fsys, path, []byte("first"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}
	if err := WriteFileAtomic(context.Background(), fsys, path, []byte("second"), 0o755); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want second", data)
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o755 {
			t.Errorf("mode = %o, want 755", info.Mode().Perm())
		}
	}
	if names := listDir(t, fsys, filepath.Dir(path)); len(names) != 1 {
		t.Errorf("directory holds %v, want only out.txt", names)
	}
}

func TestWriteFileAtomicCancelled(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/root/out.txt", []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WriteFileAtomic(ctx, fsys, "/root/out.txt", []byte("replacement"), 0o644)
	if !errors.Is(err, ErrInterrupted) || !errors.Is(err, context.Canceled) {
		t.Fatalf("WriteFileAtomic() error = %v, want interrupted + canceled", err)
	}
	data, _ := afero.ReadFile(fsys, "/root/out.txt")
	if string(data) != "original" {
		t.Errorf("target changed to %q", data)
	}
}

func TestWriteFileAtomicShortWrite(t *testing.T) {
	base := afero.NewMemMapFs()
	if err := afero.WriteFile(base, "/root/out.txt", []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}
	fsys := shortFs{Fs: base, limit: 4}

	err := WriteFileAtomic(context.Background(), fsys, "/root/out.txt", []byte(strings.Repeat("x", 100)), 0o644)
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("WriteFileAtomic() error = %v, want ErrInterrupted", err)
	}
	data, _ := afero.ReadFile(base, "/root/out.txt")
	if string(data) != "original" {
		t.Errorf("target changed to %q", data)
	}
	if names := listDir(t, base, "/root"); len(names) != 1 {
		t.Errorf("temp file left behind: %v", names)
	}
}
