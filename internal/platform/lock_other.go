//go:build !unix && !windows

package platform

import "os"

// Platforms without advisory locks run single-process.
func tryLock(f *os.File) error { return nil }

func unlock(f *os.File) error { return nil }
