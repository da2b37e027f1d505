package dogerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind discriminates the error taxonomy shared by every core component.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindTemplate
	KindFileSystem
	KindGeneration
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTemplate:
		return "template"
	case KindFileSystem:
		return "filesystem"
	case KindGeneration:
		return "generation"
	default:
		return "unknown"
	}
}

// Reason narrows a Kind to the specific condition that was detected.
type Reason string

const (
	ReasonNotFound          Reason = "not-found"
	ReasonDuplicate         Reason = "duplicate"
	ReasonRedefinition      Reason = "redefinition"
	ReasonTraversal         Reason = "path-traversal"
	ReasonPlaceholder       Reason = "unresolved-placeholder"
	ReasonCollision         Reason = "target-collision"
	ReasonExists            Reason = "target-exists"
	ReasonDrift             Reason = "drift"
	ReasonMissingVariables  Reason = "missing-variables"
	ReasonUnknownVariables  Reason = "unknown-variables"
	ReasonUndeclared        Reason = "undeclared-variables"
	ReasonCircularInclusion Reason = "circular-inclusion"
	ReasonSyntax            Reason = "syntax"
	ReasonInterrupted       Reason = "interrupted-write"
	ReasonAborted           Reason = "aborted"
	ReasonLocked            Reason = "locked"
)

// Error is the single structured error type of the generation core. It carries
// enough context (verb, path, variable names) to act on without a debugger.
type Error struct {
	Kind      Kind
	Reason    Reason
	Op        string   // component operation, e.g. "registry.register"
	Verb      string   // qualified verb identifier, if any
	Path      string   // target or file path, if any
	Variables []string // offending variable names, if any
	Msg       string
	Err       error
}

// Sentinels usable with errors.Is. A sentinel matches any *Error of the same
// Kind, and of the same Reason when the sentinel sets one.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrTemplate   = &Error{Kind: KindTemplate}
	ErrFileSystem = &Error{Kind: KindFileSystem}
	ErrGeneration = &Error{Kind: KindGeneration}
	ErrNotFound   = &Error{Kind: KindValidation, Reason: ReasonNotFound}
)

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	b.WriteString(" error")
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}

	var details []string
	if e.Verb != "" {
		details = append(details, "verb="+e.Verb)
	}
	if e.Path != "" {
		details = append(details, "path="+e.Path)
	}
	if len(e.Variables) > 0 {
		details = append(details, "variables="+strings.Join(e.Variables, ","))
	}
	if len(details) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(details, " "))
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel matching this error's Kind and Reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Msg != "" || t.Op != "" {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// WithReason sets the reason and returns e for chaining.
func (e *Error) WithReason(r Reason) *Error { e.Reason = r; return e }

// WithVerb sets the verb and returns e for chaining.
func (e *Error) WithVerb(verb string) *Error { e.Verb = verb; return e }

// WithPath sets the path and returns e for chaining.
func (e *Error) WithPath(path string) *Error { e.Path = path; return e }

// WithVariables sets the offending variable names and returns e for chaining.
func (e *Error) WithVariables(names []string) *Error {
	e.Variables = append([]string(nil), names...)
	return e
}

// Wrap sets the cause and returns e for chaining.
func (e *Error) Wrap(err error) *Error { e.Err = err; return e }

func newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Validationf builds a KindValidation error.
func Validationf(op, format string, args ...any) *Error {
	return newf(KindValidation, op, format, args...)
}

// Templatef builds a KindTemplate error.
func Templatef(op, format string, args ...any) *Error {
	return newf(KindTemplate, op, format, args...)
}

// FileSystemf builds a KindFileSystem error.
func FileSystemf(op, format string, args ...any) *Error {
	return newf(KindFileSystem, op, format, args...)
}

// Generationf builds a KindGeneration error.
func Generationf(op, format string, args ...any) *Error {
	return newf(KindGeneration, op, format, args...)
}

// KindOf returns the Kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HasKind reports whether any *Error in err's tree has the given kind.
func HasKind(err error, kind Kind) bool {
	found := false
	walk(err, func(e *Error) bool {
		if e.Kind == kind {
			found = true
			return false
		}
		return true
	})
	return found
}

// IsNotFound reports whether err is a registry lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ReasonOf returns the Reason of the outermost *Error in err's chain.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// walk visits every *Error in the tree rooted at err until visit returns false.
func walk(err error, visit func(*Error) bool) bool {
	if err == nil {
		return true
	}
	if e, ok := err.(*Error); ok {
		if !visit(e) {
			return false
		}
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			if !walk(inner, visit) {
				return false
			}
		}
	case interface{ Unwrap() error }:
		return walk(u.Unwrap(), visit)
	}
	return true
}

// Exit codes reported by the CLI, one per Kind.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitValidation = 2
	ExitTemplate   = 3
	ExitFileSystem = 4
	ExitGeneration = 5
)

// ExitCode maps err to the process exit code for its Kind.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch KindOf(err) {
	case KindValidation:
		return ExitValidation
	case KindTemplate:
		return ExitTemplate
	case KindFileSystem:
		return ExitFileSystem
	case KindGeneration:
		return ExitGeneration
	default:
		return ExitFailure
	}
}
