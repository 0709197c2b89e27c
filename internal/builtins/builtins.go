// Package builtins predeclares the io module's two intrinsics, mirroring
// original_source/compiler/hc/compiler/internal_functions.py: io.print and
// io.print_char resolve through the ordinary namespace/overload machinery,
// but the emitter special-cases a call to either of them, lowering straight
// to PRX/PRC instead of a CALL/RET sequence.
package builtins

import "github.com/hatchlang/hatch/lang/namespace"

// PrintInt and PrintChar are the mangled names the checker records on a
// Call node's Resolved field when the call targets io.print / io.print_char.
// Neither is reachable via normal Mangle output, so they can't collide with
// a user-declared function.
const (
	PrintInt  = "__internal_print"
	PrintChar = "__internal_print_char"
)

// Namespace returns the "io" module group to register under the program's
// root namespace during the checker's gather pass.
func Namespace() *namespace.Group {
	io := namespace.NewGroup(nil)
	io.DefineFunction("print", namespace.Function{
		ReturnType: "void",
		Params:     []namespace.Param{{Type: "int"}},
		Mangled:    PrintInt,
	})
	io.DefineFunction("print_char", namespace.Function{
		ReturnType: "void",
		Params:     []namespace.Param{{Type: "char"}},
		Mangled:    PrintChar,
	})
	return io
}

// IsBuiltin reports whether mangled names one of the io intrinsics.
func IsBuiltin(mangled string) bool {
	return mangled == PrintInt || mangled == PrintChar
}
