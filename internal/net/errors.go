package net

import "fmt"

// NameNotFoundError reports an activation or initializer name that has
// no case-insensitive match in the catalog.
type NameNotFoundError struct {
	Name    string
	Catalog string // "activation" or "initializer"
}

func (e *NameNotFoundError) Error() string {
	return fmt.Sprintf("net: unknown %s name %q", e.Catalog, e.Name)
}

// UnsupportedTypeError reports an unrecognized builder or joiner
// type discriminator.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("net: unsupported net type %q", e.Type)
}

// ShapeMismatchError reports a rank or width assertion failure during
// a build, such as a non-flat shape where a projection needs a vector.
type ShapeMismatchError struct {
	Reason string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("net: shape mismatch: %s", e.Reason)
}

// KeyNotFoundError reports a joiner referencing a head name that does
// not exist.
type KeyNotFoundError struct {
	Key     string
	Context string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("net: key %q not found in %s", e.Key, e.Context)
}
