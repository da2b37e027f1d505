package bootstrap

import (
	"errors"

	"github.com/dogfold-labs/dogfold/internal/artifact"
	"github.com/dogfold-labs/dogfold/internal/resolve"
)

// Outcome is what a run did with one artifact.
type Outcome string

const (
	OutcomeWritten       Outcome = "written"
	OutcomeStable        Outcome = "stable"
	OutcomeSkippedExists Outcome = "skipped-exists"
	OutcomeFailed        Outcome = "failed"
	// OutcomePending marks an artifact a dry run would have written.
	OutcomePending Outcome = "pending"
)

// Result is the outcome for one verb.
type Result struct {
	Verb     string
	Target   *resolve.Target // nil when resolution did not get that far
	Outcome  Outcome
	Hash     string             // content hash of the rendered body
	Drifted  bool               // the file on disk had been edited by hand
	Err      error              // set when Outcome is failed
	Artifact *artifact.Artifact // nil when rendering did not get that far
	Previous artifact.State     // what was on disk before the run
}

// Summary reports a finished run.
type Summary struct {
	RunID   string
	Root    string
	Phase   Phase // DONE or FAILED
	DryRun  bool
	Results []Result
}

// Count returns the number of results with outcome o.
func (s *Summary) Count(o Outcome) int {
	n := 0
	for _, r := range s.Results {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

// Converged reports whether the run planned at least one artifact and left
// every one as it was. An empty plan proves nothing and does not converge.
func (s *Summary) Converged() bool {
	if len(s.Results) == 0 {
		return false
	}
	for _, r := range s.Results {
		if r.Outcome != OutcomeStable {
			return false
		}
	}
	return true
}

// Err joins the errors of every failed result.
func (s *Summary) Err() error {
	var errs []error
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}
