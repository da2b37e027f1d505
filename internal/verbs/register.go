// dog:generated verb=verbs.register version=1.0.0 hash=sha256:77860c4638a73e1c3eabca55c2457c4497b9d0517e7f9c5249dd97b730b0423c
package verbs

import (
	"context"
	"fmt"
)

// RegisterVerb implements the "verbs.register" verb.
//
// Regenerate this file instead of editing it by hand.
type RegisterVerb struct {
	RegisterDomain func(ctx context.Context, name, parent string) error
}

// Name returns the qualified verb identifier.
func (RegisterVerb) Name() string { return "verbs.register" }

// Run registers a domain: args are the name and an optional parent.
func (v RegisterVerb) Run(ctx context.Context, args []string) error {
	if v.RegisterDomain == nil {
		return fmt.Errorf("verbs.register: no registry configured")
	}
	switch len(args) {
	case 1:
		return v.RegisterDomain(ctx, args[0], "")
	case 2:
		return v.RegisterDomain(ctx, args[0], args[1])
	default:
		return fmt.Errorf("verbs.register: want <name> [parent], got %d arguments", len(args))
	}
}
