package ast

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes an indented dump of n to w, for the CLI's --debug flag.
func Fprint(w io.Writer, n Node) {
	fprint(w, n, 0)
}

func fprint(w io.Writer, n Node, depth int) {
	if n == nil {
		return
	}
	fmt.Fprintf(w, "%s%s @ %s\n", strings.Repeat("  ", depth), describe(n), n.Pos())
	for _, c := range children(n) {
		fprint(w, c, depth+1)
	}
}

// children returns n's direct child nodes in source order, for printing
// purposes only (lang/checker and lang/compiler use Walk/Visitor instead).
func children(n Node) []Node {
	switch n := n.(type) {
	case *Block:
		out := make([]Node, len(n.Stmts))
		for i, s := range n.Stmts {
			out[i] = s
		}
		return out
	case *Function:
		return []Node{n.Body}
	case *Let:
		var out []Node
		if n.Size != nil {
			out = append(out, n.Size)
		}
		if n.Initial != nil {
			out = append(out, n.Initial)
		}
		for _, a := range n.NewArgs {
			out = append(out, a)
		}
		return out
	case *Assign:
		return []Node{n.Value}
	case *AssignIndex:
		return []Node{n.Array, n.Index, n.Value}
	case *AccessAssign:
		return []Node{n.Base, n.Value}
	case *If:
		out := []Node{n.Cond, n.Then}
		if n.Otherwise != nil {
			out = append(out, n.Otherwise)
		}
		return out
	case *Return:
		if n.Value != nil {
			return []Node{n.Value}
		}
	case *For:
		out := []Node{}
		if n.Declare != nil {
			out = append(out, n.Declare)
		}
		return append(out, n.Cond, n.Action, n.Body)
	case *While:
		return []Node{n.Cond, n.Body}
	case *ExprStmt:
		return []Node{n.X}
	case *Binary:
		return []Node{n.Left, n.Right}
	case *Unary:
		return []Node{n.X}
	case *Call:
		out := make([]Node, len(n.Args))
		for i, a := range n.Args {
			out[i] = a
		}
		return out
	case *Array:
		out := make([]Node, len(n.Elems))
		for i, e := range n.Elems {
			out[i] = e
		}
		return out
	case *Index:
		return []Node{n.Array, n.Index}
	case *Access:
		return []Node{n.Base}
	case *StructCreate:
		out := make([]Node, len(n.Args))
		for i, a := range n.Args {
			out[i] = a
		}
		return out
	case *Cast:
		return []Node{n.X}
	case *Import:
		if n.Chunk != nil {
			return []Node{n.Chunk.Block}
		}
	}
	return nil
}

func describe(n Node) string {
	switch n := n.(type) {
	case *Block:
		return fmt.Sprintf("Block(%d stmts)", len(n.Stmts))
	case *Function:
		return fmt.Sprintf("Function %s %s(%d params)", n.ReturnType, n.Name, len(n.Params))
	case *Struct:
		return fmt.Sprintf("Struct %s(%d members)", n.Name, len(n.Members))
	case *Let:
		return fmt.Sprintf("Let %s %s", n.Type, n.Name)
	case *Assign:
		return fmt.Sprintf("Assign %s", n.Name)
	case *AssignIndex:
		return "AssignIndex"
	case *AccessAssign:
		return fmt.Sprintf("AccessAssign .%s", n.Member)
	case *If:
		return "If"
	case *Return:
		return "Return"
	case *For:
		return "For"
	case *While:
		return "While"
	case *Break:
		return "Break"
	case *Continue:
		return "Continue"
	case *ExprStmt:
		return "ExprStmt"
	case *Variable:
		return fmt.Sprintf("Variable %s", n.Name)
	case *Literal:
		return fmt.Sprintf("Literal %s(%v)", n.Type, n.Value)
	case *Binary:
		return fmt.Sprintf("Binary %s", n.Op)
	case *Unary:
		return fmt.Sprintf("Unary %s", n.Op)
	case *Call:
		return fmt.Sprintf("Call %s", strings.Join(n.Path, "."))
	case *Array:
		return fmt.Sprintf("Array(%d elems)", len(n.Elems))
	case *Index:
		return "Index"
	case *Access:
		return fmt.Sprintf("Access .%s", n.Member)
	case *StructCreate:
		return fmt.Sprintf("StructCreate %s", n.Type)
	case *Cast:
		return fmt.Sprintf("Cast %s", n.Type)
	case *IncDec:
		return fmt.Sprintf("IncDec %s", n.Name)
	case *Import:
		return fmt.Sprintf("Import %s", strings.Join(n.Path, "."))
	default:
		return fmt.Sprintf("%T", n)
	}
}
