// Package types implements the compile-time type system: primitive types,
// struct layout discovery, and the explicit cast registry. It has no
// runtime representation of values — that lives in lang/machine.
package types

import "fmt"

// StructLayout is the ordered member-position map of a struct type. Position
// 0 is reserved for the struct's leading length byte (spec §3); members
// start at position 1.
type StructLayout struct {
	Order   []string // member names, declaration order
	Offsets map[string]int
	Types   map[string]*Type
}

// Position returns the 1-based offset of member, and whether it exists.
func (s *StructLayout) Position(member string) (int, bool) {
	p, ok := s.Offsets[member]
	return p, ok
}

// Type is a named, fixed-size (except string) type.
type Type struct {
	Name   string
	Length int // bytes occupied, including a struct's leading length byte; 0 for string (unknown at type-level)
	Struct *StructLayout
}

func (t *Type) String() string { return t.Name }

// Equal reports whether t and other are the same type.
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Name == other.Name
}

func (t *Type) HasStruct() bool { return t.Struct != nil }

var (
	Int   = &Type{Name: "int", Length: 1}
	Bool  = &Type{Name: "bool", Length: 1}
	Char  = &Type{Name: "char", Length: 1}
	Void  = &Type{Name: "void", Length: 1}
	// String has no fixed length: a string is an array of char.
	String = &Type{Name: "string", Length: 0}
	// Func is the type of a function value held in a local (spec §4.3.5,
	// "Function being a first-class Type") — a single stack cell holding
	// a function's entry address.
	Func = &Type{Name: "func", Length: 1}
)

func (t *Type) GoString() string { return fmt.Sprintf("types.Type(%s)", t.Name) }
