package checker

import (
	"fmt"

	"github.com/hatchlang/hatch/lang/ast"
	"github.com/hatchlang/hatch/lang/namespace"
	"github.com/hatchlang/hatch/lang/types"
)

// checkFunction checks one gathered function's body in a fresh scope rooted
// at its declaring chunk's namespace (spec §4.2 pass 2), pre-registering
// its parameters as locals at fresh stack identifiers.
func (c *checker) checkFunction(fn *ast.Function) {
	parent := c.scopeByFunc[fn.Mangled]
	scope := namespace.NewGroup(parent)
	for i := range fn.Params {
		p := &fn.Params[i]
		id := c.idgen.New()
		p.BoundID = int(id)
		scope.DefineLocal(p.Name, namespace.Local{Type: p.Type, IsArray: p.IsArray, ID: id})
	}
	retType, err := c.types.Get(fn.ReturnType)
	if err != nil {
		c.errorAt(fn.P, err.Error())
		retType = types.Void
	}
	c.checkBlock(fn.Body, scope, retType, 0)
}

func (c *checker) checkBlock(b *ast.Block, parent *namespace.Group, retType *types.Type, loopDepth int) {
	scope := namespace.NewGroup(parent)
	for _, stmt := range b.Stmts {
		c.checkStmt(stmt, scope, retType, loopDepth)
	}
}

func (c *checker) checkStmt(stmt ast.Stmt, scope *namespace.Group, retType *types.Type, loopDepth int) {
	switch n := stmt.(type) {
	case *ast.Let:
		c.checkLet(n, scope)

	case *ast.Assign:
		local, ok := scope.LookupLocal(n.Name)
		if !ok {
			c.errorAt(n.P, fmt.Sprintf("assignment to undefined variable %q", n.Name))
			return
		}
		n.BoundID = int(local.ID)
		valueT, _ := c.exprType(n.Value, scope)
		declared, err := c.types.Get(local.Type)
		if err == nil && !declared.Equal(valueT) {
			c.errorAt(n.P, fmt.Sprintf("assignment type mismatch: %s != %s", declared, valueT))
		}

	case *ast.AssignIndex:
		c.exprType(n.Array, scope)
		c.exprType(n.Index, scope)
		c.exprType(n.Value, scope)

	case *ast.AccessAssign:
		baseT, _ := c.exprType(n.Base, scope)
		if baseT == nil || !baseT.HasStruct() {
			c.errorAt(n.P, fmt.Sprintf("%s has no member %q", baseT, n.Member))
		} else if pos, ok := baseT.Struct.Position(n.Member); !ok {
			c.errorAt(n.P, fmt.Sprintf("%s has no member %q", baseT, n.Member))
		} else {
			n.Position = pos
		}
		c.exprType(n.Value, scope)

	case *ast.If:
		condT, _ := c.exprType(n.Cond, scope)
		if !condT.Equal(types.Bool) {
			c.errorAt(n.P, "if condition must be bool")
		}
		c.checkStmt(n.Then, scope, retType, loopDepth)
		if n.Otherwise != nil {
			c.checkStmt(n.Otherwise, scope, retType, loopDepth)
		}

	case *ast.Return:
		var valueT *types.Type = types.Void
		if n.Value != nil {
			valueT, _ = c.exprType(n.Value, scope)
		}
		if !valueT.Equal(retType) {
			c.errorAt(n.P, fmt.Sprintf("return type mismatch: %s != %s", valueT, retType))
		}

	case *ast.For:
		forScope := namespace.NewGroup(scope)
		if n.Declare != nil {
			c.checkLet(n.Declare, forScope)
		}
		condT, _ := c.exprType(n.Cond, forScope)
		if !condT.Equal(types.Bool) {
			c.errorAt(n.P, "for condition must be bool")
		}
		c.checkStmt(n.Action, forScope, retType, loopDepth)
		c.checkStmt(n.Body, forScope, retType, loopDepth+1)

	case *ast.While:
		condT, _ := c.exprType(n.Cond, scope)
		if !condT.Equal(types.Bool) {
			c.errorAt(n.P, "while condition must be bool")
		}
		c.checkStmt(n.Body, scope, retType, loopDepth+1)

	case *ast.Break:
		if loopDepth == 0 {
			c.errorAt(n.P, "break outside of loop")
		}

	case *ast.Continue:
		if loopDepth == 0 {
			c.errorAt(n.P, "continue outside of loop")
		}

	case *ast.Block:
		c.checkBlock(n, scope, retType, loopDepth)

	case *ast.ExprStmt:
		c.exprType(n.X, scope)

	case *ast.Import:
		// Already gathered; nothing to check at statement position.

	case *ast.Function, *ast.Struct:
		// Nested function/struct declarations are not legal inside a body;
		// the parser only produces these at chunk top level.

	default:
		c.errorAt(stmt.Pos(), fmt.Sprintf("checker: unhandled statement %T", stmt))
	}
}

// checkLet type-checks a Let declaration and binds its name to a fresh
// stack identifier in scope (spec §4.2 pass 2, Let).
func (c *checker) checkLet(n *ast.Let, scope *namespace.Group) {
	declared, err := c.types.Get(n.Type)
	if err != nil {
		c.errorAt(n.P, err.Error())
		declared = types.Void
	}
	if declared.Equal(types.Void) {
		c.errorAt(n.P, "cannot declare a void variable")
	}
	if n.NewArgs != nil {
		for _, a := range n.NewArgs {
			c.exprType(a, scope)
		}
	} else if n.Initial != nil {
		initT, isArr := c.exprType(n.Initial, scope)
		if !declared.Equal(initT) {
			c.errorAt(n.P, fmt.Sprintf("let type mismatch: %s != %s", declared, initT))
		}
		if isArr != n.IsArray {
			c.errorAt(n.P, fmt.Sprintf("let %q array-shape mismatch", n.Name))
		}
	}
	if n.Size != nil {
		c.exprType(n.Size, scope)
	}
	id := c.idgen.New()
	n.BoundID = int(id)
	scope.DefineLocal(n.Name, namespace.Local{Type: n.Type, IsArray: n.IsArray, ID: id})
}
