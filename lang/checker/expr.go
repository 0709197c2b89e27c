package checker

import (
	"fmt"

	"github.com/hatchlang/hatch/internal/builtins"
	"github.com/hatchlang/hatch/lang/ast"
	"github.com/hatchlang/hatch/lang/namespace"
	"github.com/hatchlang/hatch/lang/token"
	"github.com/hatchlang/hatch/lang/types"
)

// exprType resolves e's static type and whether it denotes an array value,
// annotating BoundID/Resolved/Position fields on the node as it goes
// (spec §4.2 pass 2). It returns types.Void on error, having already
// recorded a diagnostic, so callers can keep walking the tree.
func (c *checker) exprType(e ast.Expr, scope *namespace.Group) (*types.Type, bool) {
	switch n := e.(type) {
	case *ast.Literal:
		t, err := c.types.Get(n.Type)
		if err != nil {
			c.errorAt(n.P, err.Error())
			return types.Void, false
		}
		return t, false

	case *ast.Variable:
		if local, ok := scope.LookupLocal(n.Name); ok {
			n.BoundID = int(local.ID)
			t, err := c.types.Get(local.Type)
			if err != nil {
				c.errorAt(n.P, err.Error())
				return types.Void, false
			}
			return t, local.IsArray
		}
		if fn, ok := scope.ResolveFunctionValue([]string{n.Name}); ok {
			n.FuncRef = fn.Mangled
			return types.Func, false
		}
		c.errorAt(n.P, fmt.Sprintf("use of undefined variable %q", n.Name))
		return types.Void, false

	case *ast.IncDec:
		local, ok := scope.LookupLocal(n.Name)
		if !ok {
			c.errorAt(n.P, fmt.Sprintf("use of undefined variable %q", n.Name))
			return types.Void, false
		}
		n.BoundID = int(local.ID)
		t, _ := c.types.Get(local.Type)
		return t, false

	case *ast.Binary:
		leftT, _ := c.exprType(n.Left, scope)
		rightT, _ := c.exprType(n.Right, scope)
		if !leftT.Equal(rightT) && !isIntStringPair(leftT, rightT) {
			c.errorAt(n.P, fmt.Sprintf("binary operand type mismatch: %s != %s", leftT, rightT))
		}
		if isComparison(n.Op) {
			return types.Bool, false
		}
		return leftT, false

	case *ast.Unary:
		t, _ := c.exprType(n.X, scope)
		return t, false

	case *ast.Cast:
		fromT, _ := c.exprType(n.X, scope)
		toT, err := c.types.Get(n.Type)
		if err != nil {
			c.errorAt(n.P, err.Error())
			return types.Void, false
		}
		if !c.types.CanCast(fromT.Name, toT.Name) {
			c.errorAt(n.P, fmt.Sprintf("cast from %s to %s is not possible", fromT, toT))
		}
		return toT, false

	case *ast.Array:
		var elemT *types.Type
		for i, el := range n.Elems {
			t, _ := c.exprType(el, scope)
			if i == 0 {
				elemT = t
			} else if !t.Equal(elemT) {
				c.errorAt(n.P, "multiple data types in array literal")
			}
		}
		if elemT == nil {
			elemT = types.Void
		}
		return elemT, true

	case *ast.Index:
		arrT, _ := c.exprType(n.Array, scope)
		c.exprType(n.Index, scope)
		if arrT.Equal(types.String) {
			return types.Char, false
		}
		return arrT, false

	case *ast.Access:
		return c.checkAccess(n, scope)

	case *ast.StructCreate:
		t, err := c.types.Get(n.Type)
		if err != nil {
			c.errorAt(n.P, err.Error())
			return types.Void, false
		}
		for _, a := range n.Args {
			c.exprType(a, scope)
		}
		return t, false

	case *ast.Call:
		return c.checkCall(n, scope)

	default:
		c.errorAt(e.Pos(), fmt.Sprintf("checker: unhandled expression %T", e))
		return types.Void, false
	}
}

func isComparison(op token.Kind) bool {
	switch op {
	case token.EQL, token.NEQ, token.LT, token.LE, token.GT, token.GE:
		return true
	}
	return false
}

func isIntStringPair(a, b *types.Type) bool {
	if a == nil || b == nil {
		return false
	}
	return (a.Name == "int" && b.Name == "string") || (a.Name == "string" && b.Name == "int")
}

// checkAccess resolves a struct member access "base.member", recording the
// 1-based member position the emitter needs (spec §4.2, Access).
func (c *checker) checkAccess(n *ast.Access, scope *namespace.Group) (*types.Type, bool) {
	baseT, _ := c.exprType(n.Base, scope)
	if baseT == nil || !baseT.HasStruct() {
		c.errorAt(n.P, fmt.Sprintf("%s has no member %q", baseT, n.Member))
		return types.Void, false
	}
	pos, ok := baseT.Struct.Position(n.Member)
	if !ok {
		c.errorAt(n.P, fmt.Sprintf("%s has no member %q", baseT, n.Member))
		return types.Void, false
	}
	n.Position = pos
	return baseT.Struct.Types[n.Member], false
}

// checkCall resolves the overload at n.Path matching n.Args' (type, shape)
// signature, recording the call edge for reachability and the resolved
// mangled callee name on the node (spec §4.2, Call).
func (c *checker) checkCall(n *ast.Call, scope *namespace.Group) (*types.Type, bool) {
	params := make([]namespace.Param, len(n.Args))
	for i, a := range n.Args {
		t, isArr := c.exprType(a, scope)
		params[i] = namespace.Param{Type: t.Name, IsArray: isArr}
	}
	fn, ok := scope.ResolveFunction(n.Path, params)
	if !ok && len(n.Path) == 1 {
		if local, ok := scope.LookupLocal(n.Path[0]); ok && local.Type == "func" {
			n.ThroughLocal = true
			n.CalleeID = int(local.ID)
			// The checker cannot recover a higher-order callee's return
			// type once erased to "func"; the call is typed as int, and
			// callers using the result in a further expression are trusted
			// to use it consistently.
			return types.Int, false
		}
	}
	if !ok {
		c.errorAt(n.P, fmt.Sprintf("call to undefined function %s(%s)", joinPath(n.Path), formatParams(params)))
		return types.Void, false
	}
	n.Resolved = fn.Mangled
	c.calls = append(c.calls, callEdge{from: c.curFunc, to: fn.Mangled})
	if builtins.IsBuiltin(fn.Mangled) {
		return types.Void, false
	}
	t, err := c.types.Get(fn.ReturnType)
	if err != nil {
		return types.Void, false
	}
	return t, false
}

func joinPath(path []string) string {
	out := ""
	for i, p := range path {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}

func formatParams(params []namespace.Param) string {
	out := ""
	for i, p := range params {
		if i > 0 {
			out += ", "
		}
		out += p.Type
		if p.IsArray {
			out += "[]"
		}
	}
	return out
}
