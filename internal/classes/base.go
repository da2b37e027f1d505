// dog:generated verb=classes.base version=1.0.0 hash=sha256:4cd63c67179efb1c475575e117ee66fb3f9f756b9c711d040729f2857d2eaacc
package classes

import "context"

// BaseVerb is the base for verbs in the classes domain.
type BaseVerb struct {
	Domain string
}

// NewBaseVerb returns a BaseVerb bound to its domain.
func NewBaseVerb() BaseVerb {
	return BaseVerb{Domain: "classes"}
}

// Run is the default behaviour of a base verb and does nothing.
func (BaseVerb) Run(ctx context.Context, args []string) error {
	return ctx.Err()
}
