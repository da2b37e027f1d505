package artifact

import (
	"context"
	"errors"

	"github.com/spf13/afero"

	"github.com/dogfold-labs/dogfold/internal/dogerr"
	"github.com/dogfold-labs/dogfold/internal/platform"
)

// Writer writes artifacts atomically through an afero filesystem.
type Writer struct {
	fs afero.Fs
}

// NewWriter returns a Writer over fsys; nil selects the OS filesystem.
func NewWriter(fsys afero.Fs) *Writer {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Writer{fs: fsys}
}

// Fs returns the underlying filesystem.
func (w *Writer) Fs() afero.Fs { return w.fs }

// Write replaces the artifact's target. On any failure the target keeps its
// previous content.
func (w *Writer) Write(ctx context.Context, a *Artifact) error {
	const op = "artifact.write"

	err := platform.WriteFileAtomic(ctx, w.fs, a.Target.Path, []byte(a.Content), a.Mode)
	if err == nil {
		return nil
	}
	derr := dogerr.FileSystemf(op, "writing artifact").WithVerb(a.Verb).WithPath(a.Target.Rel).Wrap(err)
	if errors.Is(err, platform.ErrInterrupted) {
		derr.WithReason(dogerr.ReasonInterrupted)
	}
	return derr
}

// Inspect classifies what is currently at the artifact's path.
func (w *Writer) Inspect(a *Artifact) (State, error) {
	return Inspect(w.fs, a.Target.Path, a.Target.Rel)
}
