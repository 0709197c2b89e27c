// Package checker type-checks a parsed chunk in three passes (spec §4.2):
// gather (function/struct signatures across the chunk and its imports),
// check (namespace-scoped per-node validation, annotating the AST in
// place), and reachability (least fixed point over the call graph starting
// at main). Grounded on
// original_source/compiler/hc/compiler/type_checker.py, restructured as
// explicit recursive-descent Go rather than a registry of decorated
// methods.
package checker

import (
	goscanner "go/scanner"
	gotoken "go/token"

	"github.com/hatchlang/hatch/internal/builtins"
	"github.com/hatchlang/hatch/lang/ast"
	"github.com/hatchlang/hatch/lang/namespace"
	"github.com/hatchlang/hatch/lang/token"
	"github.com/hatchlang/hatch/lang/types"
)

// Result is the output of a successful Check: the reachable, fully
// annotated function set the emitter should lower, plus the struct layout
// table it needs for Access/AccessAssign and "new" construction.
type Result struct {
	Functions map[string]*ast.Function
	Structs   *types.Manager
	Order     []string // mangled function names in gather (declaration) order
}

type checker struct {
	root    *namespace.Group
	types   *types.Manager
	idgen   namespace.IDGen
	errs    goscanner.ErrorList
	funcs   map[string]*ast.Function
	order   []string
	calls   []callEdge
	curFunc string

	// scopeByFunc maps a mangled function name to the namespace group its
	// body should be checked against (its declaring chunk's own imports).
	scopeByFunc map[string]*namespace.Group
}

type callEdge struct{ from, to string }

// Check runs all three passes over chunk (the parsed main file, with its
// imports already resolved into ast.Import.Chunk by lang/parser).
func Check(chunk *ast.Chunk) (*Result, error) {
	c := &checker{
		types: types.NewManager(),
		funcs: make(map[string]*ast.Function),
	}
	c.root = namespace.NewRoot()
	io := builtins.Namespace()
	c.root.DefineGroup("io", io)

	c.gatherChunk(chunk, c.root, make(map[string]bool))

	for _, name := range c.order {
		fn := c.funcs[name]
		c.curFunc = name
		c.checkFunction(fn)
	}

	if c.errs.Len() > 0 {
		c.errs.Sort()
		return nil, c.errs
	}

	reachable := c.reachable()
	result := &Result{Functions: make(map[string]*ast.Function), Structs: c.types}
	for _, name := range c.order {
		if reachable[name] {
			result.Functions[name] = c.funcs[name]
			result.Order = append(result.Order, name)
		}
	}
	if _, ok := result.Functions["main"]; !ok {
		c.error(gotoken.Position{}, "no function 'main' found")
		return nil, c.errs
	}
	return result, nil
}

func (c *checker) error(pos gotoken.Position, msg string) {
	c.errs.Add(pos, msg)
}

func (c *checker) errorAt(pos token.Position, msg string) {
	c.error(gotoken.Position{Filename: pos.Filename, Line: pos.Line, Column: pos.Column}, msg)
}
