package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dogfold-labs/dogfold/internal/bootstrap"
	"github.com/dogfold-labs/dogfold/internal/resolve"
)

func TestPrintSummary(t *testing.T) {
	s := &bootstrap.Summary{
		RunID: "run-42",
		Phase: bootstrap.PhaseDone,
		Results: []bootstrap.Result{
			{Verb: "tools.install", Target: &resolve.Target{Rel: "internal/tools/install.go"}, Outcome: bootstrap.OutcomeWritten},
			{Verb: "tools.remove", Target: &resolve.Target{Rel: "internal/tools/remove.go"}, Outcome: bootstrap.OutcomeStable},
			{Verb: "tools.fetch", Outcome: bootstrap.OutcomeFailed, Err: errors.New("boom")},
		},
	}
	var buf bytes.Buffer
	PrintSummary(&buf, s)
	out := buf.String()

	for _, want := range []string{
		"internal/tools/install.go",
		"(tools.remove)",
		"tools.fetch",
		"boom",
		"1 written, 1 stable, 1 failed",
		"run-42",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if lines := strings.Count(out, "\n"); lines != 5 {
		t.Errorf("got %d lines, want 5:\n%s", lines, out)
	}
}

func TestPrintEmptySummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, &bootstrap.Summary{Phase: bootstrap.PhaseDone})
	if !strings.Contains(buf.String(), "nothing to do") {
		t.Errorf("output = %q", buf.String())
	}
}
