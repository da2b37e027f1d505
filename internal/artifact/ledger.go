package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"

	"github.com/dogfold-labs/dogfold/internal/dogerr"
	"github.com/dogfold-labs/dogfold/internal/platform"
)

// LedgerFile is the ledger's file name inside the state directory.
const LedgerFile = "ledger.json"

// Ledger records, per target root, the hash last written to each path.
type Ledger struct {
	RunID   string           `json:"run_id,omitempty"`
	Entries map[string]Entry `json:"entries"`
}

// Entry is the ledger record of one generated file.
type Entry struct {
	Verb    string `json:"verb"`
	Version string `json:"version"`
	Hash    string `json:"hash"`
}

// LoadLedger reads the ledger at path. A missing file is an empty ledger.
func LoadLedger(fsys afero.Fs, path string) (*Ledger, error) {
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Ledger{Entries: map[string]Entry{}}, nil
	}
	if err != nil {
		return nil, dogerr.FileSystemf("ledger.load", "reading ledger").WithPath(path).Wrap(err)
	}
	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, dogerr.FileSystemf("ledger.load", "parsing ledger").WithPath(path).Wrap(err)
	}
	if l.Entries == nil {
		l.Entries = map[string]Entry{}
	}
	return &l, nil
}

// Lookup returns the entry recorded for a root-relative path.
func (l *Ledger) Lookup(rel string) (Entry, bool) {
	e, ok := l.Entries[rel]
	return e, ok
}

// Record stores the entry for a root-relative path.
func (l *Ledger) Record(rel string, e Entry) {
	l.Entries[rel] = e
}

// Save writes the ledger atomically. Keys are written in sorted order.
func (l *Ledger) Save(ctx context.Context, fsys afero.Fs, path string) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}
	data = append(data, '\n')
	if err := platform.WriteFileAtomic(ctx, fsys, path, data, 0o644); err != nil {
		return dogerr.FileSystemf("ledger.save", "writing ledger").WithPath(path).Wrap(err)
	}
	return nil
}
