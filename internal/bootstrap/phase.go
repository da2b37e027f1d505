package bootstrap

import (
	"slices"

	"github.com/dogfold-labs/dogfold/internal/dogerr"
)

// Phase is a step of a generation run.
type Phase string

const (
	PhasePlanning   Phase = "PLANNING"
	PhaseResolving  Phase = "RESOLVING"
	PhaseRendering  Phase = "RENDERING"
	PhaseValidating Phase = "VALIDATING"
	PhaseWriting    Phase = "WRITING"
	PhaseDone       Phase = "DONE"
	PhaseFailed     Phase = "FAILED"
)

// transitions lists the phases reachable from each phase. A dry run ends
// after VALIDATING.
var transitions = map[Phase][]Phase{
	PhasePlanning:   {PhaseResolving, PhaseFailed},
	PhaseResolving:  {PhaseRendering, PhaseFailed},
	PhaseRendering:  {PhaseValidating, PhaseFailed},
	PhaseValidating: {PhaseWriting, PhaseDone, PhaseFailed},
	PhaseWriting:    {PhaseDone, PhaseFailed},
}

// Terminal reports whether no phase follows p.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// CanTransition reports whether a run may move from p to next.
func (p Phase) CanTransition(next Phase) bool {
	return slices.Contains(transitions[p], next)
}

func checkTransition(from, to Phase) error {
	if !from.CanTransition(to) {
		return dogerr.Generationf("bootstrap.phase", "illegal phase transition %s -> %s", from, to)
	}
	return nil
}
