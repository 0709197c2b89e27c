package checker

import (
	"github.com/hatchlang/hatch/lang/ast"
	"github.com/hatchlang/hatch/lang/namespace"
)

// gatherChunk is pass 1 for the main chunk: it registers every function and
// struct declared at chunk's top level directly into scope (the program's
// root namespace, already pre-populated with the io builtins), and recurses
// into each import to build its exposed module group.
func (c *checker) gatherChunk(chunk *ast.Chunk, scope *namespace.Group, visiting map[string]bool) {
	c.registerStructs(chunk)
	c.registerFunctions(chunk, scope)
	for localName, imp := range chunk.Imports {
		if imp.Chunk == nil {
			continue
		}
		moduleGroup := c.gatherModule(imp.Chunk, visiting)
		scope.DefineGroup(localName, moduleGroup)
	}
}

// gatherModule gathers an imported file: its own functions/structs are
// checked against a scope built from ITS OWN imports (not the importer's),
// mirroring original_source/compiler/hc/compiler/type_checker.py's nested
// "checker" call. It returns the module group the importer exposes under
// its local import name.
func (c *checker) gatherModule(chunk *ast.Chunk, visiting map[string]bool) *namespace.Group {
	if visiting[chunk.Name] {
		// Import cycle: spec §4.1 says this layer does not detect it; treat
		// the cycle edge as an empty module rather than recursing forever.
		return namespace.NewGroup(nil)
	}
	visiting[chunk.Name] = true
	defer delete(visiting, chunk.Name)

	moduleScope := namespace.NewRoot()
	c.registerStructs(chunk)
	c.registerFunctions(chunk, moduleScope)
	exposed := namespace.NewGroup(nil)
	c.copyFunctionsInto(chunk, exposed)

	for localName, imp := range chunk.Imports {
		if imp.Chunk == nil {
			continue
		}
		sub := c.gatherModule(imp.Chunk, visiting)
		moduleScope.DefineGroup(localName, sub)
		exposed.DefineGroup(localName, sub)
	}
	return exposed
}

// registerStructs adds every struct declared at chunk's top level to the
// shared type table (spec §4.2 pass 1).
func (c *checker) registerStructs(chunk *ast.Chunk) {
	for _, stmt := range chunk.Block.Stmts {
		st, ok := stmt.(*ast.Struct)
		if !ok {
			continue
		}
		c.defineStruct(st)
	}
}

// registerFunctions mangles and records every function declared at chunk's
// top level, both in c.funcs (global, for later checking/reachability) and
// in scope (so calls within this chunk resolve against it).
func (c *checker) registerFunctions(chunk *ast.Chunk, scope *namespace.Group) {
	for _, stmt := range chunk.Block.Stmts {
		fn, ok := stmt.(*ast.Function)
		if !ok {
			continue
		}
		paramTypes := make([]string, len(fn.Params))
		nsParams := make([]namespace.Param, len(fn.Params))
		for i, p := range fn.Params {
			paramTypes[i] = p.Type
			nsParams[i] = namespace.Param{Type: p.Type, IsArray: p.IsArray}
		}
		mangled := namespace.Mangle(fn.Name, chunk.Name, paramTypes)
		fn.Mangled = mangled
		c.funcs[mangled] = fn
		c.order = append(c.order, mangled)
		c.scopeFor(mangled, scope)
		scope.DefineFunction(mangled, namespace.Function{
			ReturnType: fn.ReturnType,
			Params:     nsParams,
			Mangled:    mangled,
		})
	}
}

// copyFunctionsInto re-exposes chunk's already-mangled functions (just
// gathered into c.funcs) under exposed, for the importer's namespace.
func (c *checker) copyFunctionsInto(chunk *ast.Chunk, exposed *namespace.Group) {
	for _, stmt := range chunk.Block.Stmts {
		fn, ok := stmt.(*ast.Function)
		if !ok {
			continue
		}
		nsParams := make([]namespace.Param, len(fn.Params))
		for i, p := range fn.Params {
			nsParams[i] = namespace.Param{Type: p.Type, IsArray: p.IsArray}
		}
		exposed.DefineFunction(fn.Mangled, namespace.Function{
			ReturnType: fn.ReturnType,
			Params:     nsParams,
			Mangled:    fn.Mangled,
		})
	}
}

func (c *checker) scopeFor(mangled string, scope *namespace.Group) {
	if c.scopeByFunc == nil {
		c.scopeByFunc = make(map[string]*namespace.Group)
	}
	c.scopeByFunc[mangled] = scope
}
