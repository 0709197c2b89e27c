package namespace_test

import (
	"testing"

	"github.com/hatchlang/hatch/lang/namespace"
	"github.com/stretchr/testify/require"
)

func TestLookupLocalWalksParents(t *testing.T) {
	root := namespace.NewRoot()
	root.DefineLocal("x", namespace.Local{Type: "int", ID: 1})

	child := namespace.NewGroup(root)
	l, ok := child.LookupLocal("x")
	require.True(t, ok)
	require.Equal(t, namespace.ID(1), l.ID)
}

func TestOverloadResolutionByShape(t *testing.T) {
	root := namespace.NewRoot()
	mangled := namespace.Mangle("inc_or_dec", "main.hatch", []string{"int"})
	root.DefineFunction(mangled, namespace.Function{
		ReturnType: "int",
		Params:     []namespace.Param{{Type: "int"}},
		Mangled:    mangled,
	})

	fn, ok := root.ResolveFunction([]string{"inc_or_dec"}, []namespace.Param{{Type: "int"}})
	require.True(t, ok)
	require.Equal(t, mangled, fn.Mangled)

	_, ok = root.ResolveFunction([]string{"inc_or_dec"}, []namespace.Param{{Type: "bool"}})
	require.False(t, ok)
}

func TestModuleQualifiedLookup(t *testing.T) {
	root := namespace.NewRoot()
	io := namespace.NewGroup(root)
	io.DefineFunction("print", namespace.Function{
		ReturnType: "void",
		Params:     []namespace.Param{{Type: "int"}},
		Mangled:    "print",
	})
	root.DefineGroup("io", io)

	fn, ok := root.ResolveFunction([]string{"io", "print"}, []namespace.Param{{Type: "int"}})
	require.True(t, ok)
	require.Equal(t, "print", fn.Mangled)
}

func TestMangleMainUnmangled(t *testing.T) {
	require.Equal(t, "main", namespace.Mangle("main", "f.hatch", nil))
	require.Equal(t, "f###|int|a.hatch", namespace.Mangle("f", "a.hatch", []string{"int"}))
}
