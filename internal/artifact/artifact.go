package artifact

import (
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/afero"

	"github.com/dogfold-labs/dogfold/internal/dogerr"
	"github.com/dogfold-labs/dogfold/internal/resolve"
)

// Artifact is one rendered file, ready to be written.
type Artifact struct {
	Target  *resolve.Target
	Verb    string // qualified verb id
	Version string // template version
	Body    string // rendered text without header
	Hash    string // Hash(Body)
	Content string // header + body, the bytes that go to disk
	Mode    os.FileMode
}

// New stamps body with its provenance header.
func New(target *resolve.Target, verb, version, body string, mode os.FileMode) *Artifact {
	p := Provenance{Verb: verb, Version: version, Hash: Hash(body)}
	if mode == 0 {
		mode = 0o644
	}
	return &Artifact{
		Target:  target,
		Verb:    verb,
		Version: version,
		Body:    body,
		Hash:    p.Hash,
		Content: Stamp(target.Rel, p, body),
		Mode:    mode,
	}
}

// State describes what is currently on disk at an artifact's path.
type State struct {
	Present    bool
	Generated  bool       // carries a provenance header
	Provenance Provenance // valid when Generated
	Drifted    bool       // Generated, but the body no longer matches its header hash
	Body       string     // body without header, or the full content when not generated
	Content    string
}

// Inspect reads the file at path and classifies it.
func Inspect(fsys afero.Fs, path, name string) (State, error) {
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, dogerr.FileSystemf("artifact.inspect", "reading existing file").WithPath(name).Wrap(err)
	}

	content := string(data)
	st := State{Present: true, Content: content, Body: content}
	if p, body, ok := Split(name, content); ok {
		st.Generated = true
		st.Provenance = p
		st.Body = body
		st.Drifted = Hash(body) != p.Hash
	}
	return st, nil
}

// Unchanged reports whether writing a would leave the file as it is.
func (st State) Unchanged(a *Artifact) bool {
	return st.Generated && !st.Drifted && st.Provenance.Hash == a.Hash && st.Content == a.Content
}
