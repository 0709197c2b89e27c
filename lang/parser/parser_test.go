package parser_test

import (
	goscanner "go/scanner"
	"testing"

	"github.com/hatchlang/hatch/lang/ast"
	"github.com/hatchlang/hatch/lang/parser"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *ast.Chunk {
	t.Helper()
	chunk, err := parser.ParseSource("test.hatch", []byte(src))
	require.NoError(t, err)
	return chunk
}

func TestParseFunctionAndReturn(t *testing.T) {
	chunk := mustParse(t, `
function int triangle(int n) {
	if (n == 0) {
		return 0;
	}
	return n + triangle(n - 1);
}
`)
	require.Len(t, chunk.Block.Stmts, 1)
	fn, ok := chunk.Block.Stmts[0].(*ast.Function)
	require.True(t, ok)
	require.Equal(t, "triangle", fn.Name)
	require.Equal(t, "int", fn.ReturnType)
	require.Len(t, fn.Params, 1)
	require.Equal(t, "n", fn.Params[0].Name)
}

func TestParseLetAndArray(t *testing.T) {
	chunk := mustParse(t, `
function void main() {
	let int[3] xs = [1, 2, 3];
	let int x = xs[0];
}
`)
	fn := chunk.Block.Stmts[0].(*ast.Function)
	let1 := fn.Body.Stmts[0].(*ast.Let)
	require.True(t, let1.IsArray)
	arr, ok := let1.Initial.(*ast.Array)
	require.True(t, ok)
	require.Len(t, arr.Elems, 3)

	let2 := fn.Body.Stmts[1].(*ast.Let)
	idx, ok := let2.Initial.(*ast.Index)
	require.True(t, ok)
	_, ok = idx.Array.(*ast.Variable)
	require.True(t, ok)
}

func TestParseIncrementPeephole(t *testing.T) {
	chunk := mustParse(t, `
function void main() {
	let int i = 0;
	i = i + 1;
	i = i - 1;
	i++;
}
`)
	fn := chunk.Block.Stmts[0].(*ast.Function)
	inc := fn.Body.Stmts[1].(*ast.Assign)
	require.True(t, inc.Increment)
	dec := fn.Body.Stmts[2].(*ast.Assign)
	require.True(t, dec.Decrement)
	post := fn.Body.Stmts[3].(*ast.ExprStmt)
	require.True(t, post.Increment)
}

func TestParseForWhileBreakContinue(t *testing.T) {
	chunk := mustParse(t, `
function void main() {
	for (let int i = 0; i < 10; i = i + 1) {
		if (i == 5) {
			break;
		}
		continue;
	}
	while (true) {
		break;
	}
}
`)
	fn := chunk.Block.Stmts[0].(*ast.Function)
	forStmt, ok := fn.Body.Stmts[0].(*ast.For)
	require.True(t, ok)
	require.NotNil(t, forStmt.Declare)
	whileStmt, ok := fn.Body.Stmts[1].(*ast.While)
	require.True(t, ok)
	require.NotNil(t, whileStmt.Body)
}

func TestParseAssignmentForms(t *testing.T) {
	chunk := mustParse(t, `
struct Point {
	int x,
	int y,
}
function void main() {
	let Point p = new Point(1, 2);
	p.x = 5;
	let int[3] xs = [1, 2, 3];
	xs[0] = 9;
}
`)
	st := chunk.Block.Stmts[0].(*ast.Struct)
	require.Equal(t, "Point", st.Name)
	require.Len(t, st.Members, 2)

	fn := chunk.Block.Stmts[1].(*ast.Function)
	let1 := fn.Body.Stmts[0].(*ast.Let)
	require.Len(t, let1.NewArgs, 2)

	aa := fn.Body.Stmts[1].(*ast.AccessAssign)
	require.Equal(t, "x", aa.Member)

	ai := fn.Body.Stmts[3].(*ast.AssignIndex)
	_, ok := ai.Value.(*ast.Literal)
	require.True(t, ok)
}

func TestParseCallPath(t *testing.T) {
	chunk := mustParse(t, `
function void main() {
	io.print(42);
}
`)
	fn := chunk.Block.Stmts[0].(*ast.Function)
	es := fn.Body.Stmts[0].(*ast.ExprStmt)
	call := es.X.(*ast.Call)
	require.Equal(t, []string{"io", "print"}, call.Path)
	require.Len(t, call.Args, 1)
}

func TestParseErrorRecoverySurfacesMultiple(t *testing.T) {
	_, err := parser.ParseSource("bad.hatch", []byte(`
function int f( {
	let int x = ;
}
`))
	require.Error(t, err)
	require.Greater(t, len(err.(goscanner.ErrorList)), 1)
}

func TestImportWithoutResolverIsError(t *testing.T) {
	_, err := parser.ParseSource("bad.hatch", []byte(`import lib.math;`))
	require.Error(t, err)
}
