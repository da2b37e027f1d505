package platform

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// EvalExistingPrefix resolves symlinks in the longest prefix of path that
// exists on disk and re-appends the remaining, not yet created, components.
// path must be absolute.
func EvalExistingPrefix(path string) (string, error) {
	path = filepath.Clean(path)
	var rest []string
	cur := path
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			for i := len(rest) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, rest[i])
			}
			return resolved, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return path, nil
		}
		rest = append(rest, filepath.Base(cur))
		cur = parent
	}
}

// Within reports whether path lies inside root (or is root). Both are cleaned
// lexically; resolve symlinks first when that matters.
func Within(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !startsWithDotDot(rel))
}

func startsWithDotDot(rel string) bool {
	return len(rel) >= 3 && rel[:2] == ".." && os.IsPathSeparator(rel[2])
}
