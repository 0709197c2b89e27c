package types

import "fmt"

// Manager is the per-compilation type table: it owns the primitive types
// and every struct type discovered during the checker's gather pass, plus
// the explicit cast registry (spec §3: "cast is allowed iff explicitly
// registered").
type Manager struct {
	defined map[string]*Type
	casts   map[[2]string]bool
}

// NewManager returns a Manager pre-populated with the primitive types and
// the language's built-in cast pairs.
func NewManager() *Manager {
	m := &Manager{
		defined: make(map[string]*Type),
		casts:   make(map[[2]string]bool),
	}
	for _, t := range []*Type{Int, Bool, Char, Void, String, Func} {
		m.Define(t)
	}
	// Registered casts: int<->char (ordinal value), int<->bool (0/1),
	// int<->string (pointer-style use, spec §4.2 Binary note).
	for _, pair := range [][2]string{
		{"int", "char"}, {"char", "int"},
		{"int", "bool"}, {"bool", "int"},
		{"int", "string"}, {"string", "int"},
	} {
		m.casts[pair] = true
	}
	return m
}

// Define registers t, overwriting any previous type of the same name.
func (m *Manager) Define(t *Type) *Type {
	m.defined[t.Name] = t
	return t
}

// Get returns the named type, or an error if it is not defined.
func (m *Manager) Get(name string) (*Type, error) {
	if t, ok := m.defined[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("unknown type access %q", name)
}

// Exists reports whether name is a defined type.
func (m *Manager) Exists(name string) bool {
	_, ok := m.defined[name]
	return ok
}

// CanCast reports whether a value of type from may be cast to type to.
func (m *Manager) CanCast(from, to string) bool {
	if from == to {
		return true
	}
	return m.casts[[2]string{from, to}]
}
