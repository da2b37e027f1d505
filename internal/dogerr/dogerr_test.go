package dogerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := Templatef("render", "missing bindings for %q", "install").
		WithReason(ReasonMissingVariables).
		WithVerb("tools.install").
		WithVariables([]string{"domain", "name"})

	msg := err.Error()
	for _, want := range []string{"render:", "template error", "verb=tools.install", "variables=domain,name"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestSentinelMatching(t *testing.T) {
	notFound := Validationf("registry.lookup", "verb not found").WithReason(ReasonNotFound)
	wrapped := fmt.Errorf("looking up: %w", notFound)

	if !errors.Is(wrapped, ErrValidation) {
		t.Error("expected wrapped error to match ErrValidation")
	}
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("expected wrapped error to match ErrNotFound")
	}
	if errors.Is(wrapped, ErrTemplate) {
		t.Error("did not expect match with ErrTemplate")
	}
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound() = false, want true")
	}

	dup := Validationf("registry.register", "duplicate").WithReason(ReasonDuplicate)
	if IsNotFound(dup) {
		t.Error("duplicate error should not be reported as not found")
	}
}

func TestHasKindWalksTree(t *testing.T) {
	inner := Validationf("resolve", "collision").WithReason(ReasonCollision)
	outer := Generationf("bootstrap.resolve", "plan rejected").Wrap(inner)

	if KindOf(outer) != KindGeneration {
		t.Errorf("KindOf() = %v, want generation", KindOf(outer))
	}
	if !HasKind(outer, KindValidation) {
		t.Error("HasKind(validation) = false, want true")
	}

	joined := errors.Join(errors.New("plain"), FileSystemf("write", "disk full"))
	if !HasKind(joined, KindFileSystem) {
		t.Error("HasKind should find errors inside errors.Join")
	}
	if HasKind(joined, KindTemplate) {
		t.Error("HasKind(template) = true, want false")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", errors.New("boom"), ExitFailure},
		{"validation", Validationf("x", "bad"), ExitValidation},
		{"template", Templatef("x", "bad"), ExitTemplate},
		{"filesystem", fmt.Errorf("wrapped: %w", FileSystemf("x", "bad")), ExitFileSystem},
		{"generation", Generationf("x", "bad"), ExitGeneration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
