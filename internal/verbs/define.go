// dog:generated verb=verbs.define version=1.0.0 hash=sha256:5f91a594c6c2594622822a7211ef693ac4a7dc8f1029c97aa4db344808d35bae
package verbs

import (
	"context"
	"fmt"
)

// DefineVerb implements the "verbs.define" verb.
//
// Regenerate this file instead of editing it by hand.
type DefineVerb struct {
	Register func(ctx context.Context, domain, id string) error
}

// Name returns the qualified verb identifier.
func (DefineVerb) Name() string { return "verbs.define" }

// Run registers each "domain.verb" identifier in args.
func (v DefineVerb) Run(ctx context.Context, args []string) error {
	if v.Register == nil {
		return fmt.Errorf("verbs.define: no registry configured")
	}
	for _, arg := range args {
		domain, id, ok := cut(arg)
		if !ok {
			return fmt.Errorf("verbs.define: %q is not a domain.verb identifier", arg)
		}
		if err := v.Register(ctx, domain, id); err != nil {
			return fmt.Errorf("verbs.define: %w", err)
		}
	}
	return nil
}

// cut splits a qualified identifier at its last dot.
func cut(s string) (string, string, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return s[:i], s[i+1:], i > 0 && i < len(s)-1
		}
	}
	return "", "", false
}
