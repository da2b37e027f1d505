package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/dogfold-labs/dogfold/internal/bootstrap"
)

// PrintSummary writes one line per result followed by the totals. Failed
// results carry their error on a detail line.
func PrintSummary(w io.Writer, s *bootstrap.Summary) {
	for _, r := range s.Results {
		target := r.Verb
		if r.Target != nil {
			target = r.Target.Rel
		}
		fmt.Fprintf(w, "%s %-14s %s %s\n", icon(r), string(r.Outcome), target, RenderMuted("("+r.Verb+")"))
		if r.Drifted && r.Outcome == bootstrap.OutcomeWritten {
			fmt.Fprintf(w, "  %s%s\n", TreeLast, RenderWarn("overwrote hand edits"))
		}
		if r.Err != nil {
			fmt.Fprintf(w, "  %s%s\n", TreeLast, RenderFail(r.Err.Error()))
		}
	}

	var parts []string
	for _, o := range []bootstrap.Outcome{
		bootstrap.OutcomeWritten, bootstrap.OutcomeStable, bootstrap.OutcomeSkippedExists,
		bootstrap.OutcomePending, bootstrap.OutcomeFailed,
	} {
		if n := s.Count(o); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, o))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "nothing to do")
	}
	status := RenderPass(string(s.Phase))
	if s.Phase == bootstrap.PhaseFailed {
		status = RenderFail(string(s.Phase))
	}
	fmt.Fprintf(w, "%s %s %s\n", status, strings.Join(parts, ", "), RenderMuted("run "+s.RunID))
}

func icon(r bootstrap.Result) string {
	switch r.Outcome {
	case bootstrap.OutcomeWritten:
		if r.Drifted {
			return RenderWarn(IconWarn)
		}
		return RenderPass(IconPass)
	case bootstrap.OutcomeStable:
		return RenderMuted(IconPass)
	case bootstrap.OutcomeSkippedExists:
		return RenderMuted(IconSkip)
	case bootstrap.OutcomePending:
		return RenderWarn(IconPending)
	default:
		return RenderFail(IconFail)
	}
}
