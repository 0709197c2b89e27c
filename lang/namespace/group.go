// Package namespace implements the namespace-group tree of spec.md §3: a
// tree of nested scopes (modules, struct-shaped locals, function bodies)
// used by lang/checker to resolve names, and the opaque identifiers that
// stand in for a local's position on the compile-time stack.
//
// Namespace groups are lookup-only trees: a child's Parent pointer is never
// used to mutate the parent, only to walk up during Lookup (spec §9,
// "Namespace groups — no cycles").
package namespace

import "fmt"

// ID is an opaque identifier allocated by a Let declaration. It locates a
// value on the compile-time stack (lang/compiler.Stack) without relying on
// object identity (spec §9).
type ID int

// IDGen hands out fresh, never-repeating IDs for a single compilation: a
// single compilation is single-threaded and owns its IDGen exclusively, so
// a monotonic counter is simpler and sufficient than a random identifier
// (see DESIGN.md).
type IDGen struct{ next ID }

func (g *IDGen) New() ID {
	g.next++
	return g.next
}

// Function is a resolved function signature, as recorded during the
// checker's gather pass.
type Function struct {
	ReturnType string
	Params     []Param
	Mangled    string
}

// Param is the (type, shape) signature of one parameter, used for overload
// resolution.
type Param struct {
	Type    string
	IsArray bool
}

// Local is a resolved scalar or array local.
type Local struct {
	Type    string
	IsArray bool
	ID      ID
}

// entryKind tags what a Group.locals map entry holds.
type entryKind int

const (
	entryLocal entryKind = iota
	entryFunction
	entryGroup
)

type entry struct {
	kind  entryKind
	local Local
	fn    Function
	group *Group
}

// Group is one lexical scope: a module, a function body, a nested block, or
// a struct-shaped local's member namespace.
type Group struct {
	Parent *Group
	locals map[string]entry

	// Globals marks the root namespace (spec §3's "no_globals" distinction,
	// inverted to name the common case).
	Globals bool
}

// NewGroup returns a child scope of parent (nil for the root).
func NewGroup(parent *Group) *Group {
	return &Group{Parent: parent, locals: make(map[string]entry)}
}

// NewRoot returns a new globals namespace.
func NewRoot() *Group {
	g := NewGroup(nil)
	g.Globals = true
	return g
}

// DefineLocal binds name to a fresh local in this scope.
func (g *Group) DefineLocal(name string, l Local) {
	g.locals[name] = entry{kind: entryLocal, local: l}
}

// DefineFunction binds name to a function signature in this scope.
func (g *Group) DefineFunction(name string, f Function) {
	g.locals[name] = entry{kind: entryFunction, fn: f}
}

// DefineGroup binds name to a nested group (a module or a struct-shaped
// local) in this scope.
func (g *Group) DefineGroup(name string, sub *Group) {
	g.locals[name] = entry{kind: entryGroup, group: sub}
}

// LookupLocal resolves name by walking up Parent pointers, as a Local.
func (g *Group) LookupLocal(name string) (Local, bool) {
	for s := g; s != nil; s = s.Parent {
		if e, ok := s.locals[name]; ok && e.kind == entryLocal {
			return e.local, true
		}
	}
	return Local{}, false
}

// LookupGroup resolves a single name as a nested Group, without walking to
// the parent (used to step into a module or struct member namespace along a
// dotted access path).
func (g *Group) LookupGroup(name string) (*Group, bool) {
	if e, ok := g.locals[name]; ok && e.kind == entryGroup {
		return e.group, true
	}
	return nil, false
}

// resolvePath walks a dotted path (e.g. ["io", "print"] or ["x"]) through
// nested groups, returning the group holding the final segment and that
// segment's name. For a one-segment path the group is nil: callers then
// search g and its parents. Otherwise the first segment's group is found
// walking up Parent, and each later group segment must resolve in the
// group before it (no parent walk once inside a module).
func (g *Group) resolvePath(path []string) (*Group, string, bool) {
	if len(path) == 0 {
		return nil, "", false
	}
	if len(path) == 1 {
		return nil, path[0], true
	}
	cur := g
	for i := 0; i < len(path)-1; i++ {
		var ok bool
		if i == 0 {
			cur, ok = lookupGroupChain(cur, path[i])
		} else {
			cur, ok = cur.LookupGroup(path[i])
		}
		if !ok {
			return nil, "", false
		}
	}
	return cur, path[len(path)-1], true
}

func lookupGroupChain(g *Group, name string) (*Group, bool) {
	for s := g; s != nil; s = s.Parent {
		if sub, ok := s.LookupGroup(name); ok {
			return sub, true
		}
	}
	return nil, false
}

// LookupVariable resolves a dotted path to a Local (struct-shaped member
// access, e.g. ["point", "x"] is handled by lang/checker via Access nodes
// instead; this is for plain nested-module variables, kept for symmetry).
func (g *Group) LookupVariable(path []string) (Local, bool) {
	cur, name, ok := g.resolvePath(path)
	if !ok {
		return Local{}, false
	}
	if cur == nil {
		return g.LookupLocal(name)
	}
	if e, ok := cur.locals[name]; ok && e.kind == entryLocal {
		return e.local, true
	}
	return Local{}, false
}

// HasFunction reports whether name (optionally qualified by path) refers to
// any overload at all, ignoring parameter shape.
func (g *Group) HasFunction(path []string) bool {
	cur, name, ok := g.resolvePath(path)
	if !ok {
		return false
	}
	scope := cur
	if scope == nil {
		scope = g
	}
	for s := scope; s != nil; s = s.Parent {
		if e, ok := s.locals[name]; ok && e.kind == entryFunction {
			return true
		}
		if _, ok := mangledCandidate(s, name); ok {
			return true
		}
		if cur != nil {
			break // qualified lookup does not walk past the module boundary
		}
	}
	return false
}

// ResolveFunction finds the overload of name (optionally qualified by path)
// whose parameter shapes exactly match params (spec §4.2: "exact match over
// (type, is_array) tuples").
func (g *Group) ResolveFunction(path []string, params []Param) (Function, bool) {
	cur, name, ok := g.resolvePath(path)
	if !ok {
		return Function{}, false
	}
	scope := cur
	if scope == nil {
		scope = g
	}
	for s := scope; s != nil; s = s.Parent {
		if e, ok := s.locals[name]; ok && e.kind == entryFunction && paramsMatch(e.fn.Params, params) {
			return e.fn, true
		}
		for localName, e := range s.locals {
			if e.kind != entryFunction {
				continue
			}
			if base, ok := demangle(localName); ok && base == name && paramsMatch(e.fn.Params, params) {
				return e.fn, true
			}
		}
		if cur != nil {
			break
		}
	}
	return Function{}, false
}

// ResolveFunctionValue finds the single function bound to name (optionally
// qualified by path), ignoring parameter shape, for use as a first-class
// function value (spec §4.3.5). It returns ok=false if no overload exists
// or if more than one does, since a bare function name cannot disambiguate
// an overload set the way a call's argument list can.
func (g *Group) ResolveFunctionValue(path []string) (Function, bool) {
	cur, name, ok := g.resolvePath(path)
	if !ok {
		return Function{}, false
	}
	scope := cur
	if scope == nil {
		scope = g
	}
	for s := scope; s != nil; s = s.Parent {
		var found Function
		count := 0
		if e, ok := s.locals[name]; ok && e.kind == entryFunction {
			found, count = e.fn, 1
		}
		for localName, e := range s.locals {
			if e.kind != entryFunction {
				continue
			}
			if base, ok := demangle(localName); ok && base == name {
				found = e.fn
				count++
			}
		}
		if count == 1 {
			return found, true
		}
		if count > 1 {
			return Function{}, false
		}
		if cur != nil {
			break
		}
	}
	return Function{}, false
}

func mangledCandidate(s *Group, name string) (Function, bool) {
	for localName, e := range s.locals {
		if e.kind != entryFunction {
			continue
		}
		if base, ok := demangle(localName); ok && base == name {
			return e.fn, true
		}
	}
	return Function{}, false
}

func paramsMatch(have []Param, want []Param) bool {
	if len(have) != len(want) {
		return false
	}
	for i := range have {
		if have[i] != want[i] {
			return false
		}
	}
	return true
}

func (e Function) String() string {
	return fmt.Sprintf("%s %s", e.ReturnType, e.Mangled)
}
