// Package render turns a template plus a generation context into text. It
// fails closed: every variable declared anywhere in the template's inclusion
// closure must be bound, and all missing names are reported together.
package render
