// Package types declares the types and objects of an architecture
// description and the arena of scopes they are declared in.
package types

// Type is implemented by all types.
type Type interface {
	String() string
	aType()
}

type typ struct{}

func (typ) aType() {}
