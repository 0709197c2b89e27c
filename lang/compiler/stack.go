package compiler

import "github.com/hatchlang/hatch/lang/namespace"

// Stack mirrors the compile-time stack model of
// original_source/compiler/hc/compiler/memory.py's Stack class: one entry
// per local bound by a Let or Param, in push order, regardless of whether
// the local is a scalar, an array, or a struct (each occupies exactly one
// data-stack slot holding its address).
type Stack struct {
	ids []namespace.ID

	// temp holds the number of stack cells that are live above the
	// declared locals but not yet bound to a name — e.g. a saved
	// register pushed while evaluating a nested operand (spec §4.3.1,
	// REDESIGN FLAGS #1). Offset() adds it to every lookup so that
	// addresses computed before the push still land correctly afterward.
	temp int
}

// NewStack returns an empty compile-time stack.
func NewStack() *Stack { return &Stack{} }

// Push records id as freshly bound at the top of the runtime stack.
func (s *Stack) Push(id namespace.ID) { s.ids = append(s.ids, id) }

// Unstack drops the top n bound locals, as a block or function exit does.
func (s *Stack) Unstack(n int) { s.ids = s.ids[:len(s.ids)-n] }

// Exists reports whether id is currently bound on the stack.
func (s *Stack) Exists(id namespace.ID) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Offset returns id's current 1-based distance from the top of the runtime
// stack: the top bound local is 1, the next is 2, and so on, plus any live
// unbound temporaries (spec §4.3.1, id_on_stack). It panics if id is not
// bound, since every caller first resolves id through the checker.
func (s *Stack) Offset(id namespace.ID) int {
	for i := len(s.ids) - 1; i >= 0; i-- {
		if s.ids[i] == id {
			return len(s.ids)-i + s.temp
		}
	}
	panic("compiler: stack identifier not bound")
}

// tempScope is a saved/restored extent of s.temp, taken out before lowering
// a sub-expression that pushes unbound temporaries (e.g. a saved register,
// or a nested call's arguments) and restored once that sub-expression's
// pushes have all been popped again. This replaces the original's single
// mutable temp_extra_stack_vars counter with an explicit scope object, so
// that nested uses (a binary inside a call's argument list, itself holding
// a binary) cannot leave the counter in an inconsistent state if lowering
// takes an early-return path (spec REDESIGN FLAGS #1).
type tempScope struct {
	s    *Stack
	base int
}

// enterTemp opens a new scope, snapshotting the current temp count.
func (s *Stack) enterTemp() tempScope {
	return tempScope{s: s, base: s.temp}
}

// add grows the enclosing scope's live temporary count by n cells.
func (t tempScope) add(n int) { t.s.temp += n }

// exit restores temp to what it was when the scope was entered, discarding
// whatever this scope (and any it opened) added.
func (t tempScope) exit() { t.s.temp = t.base }
