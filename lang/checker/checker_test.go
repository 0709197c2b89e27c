package checker_test

import (
	"testing"

	"github.com/hatchlang/hatch/lang/ast"
	"github.com/hatchlang/hatch/lang/checker"
	"github.com/hatchlang/hatch/lang/parser"
	"github.com/stretchr/testify/require"
)

func parseAndCheck(t *testing.T, src string) (*checker.Result, error) {
	t.Helper()
	chunk, err := parser.ParseSource("test.hatch", []byte(src))
	require.NoError(t, err)
	return checker.Check(chunk)
}

func TestCheckSimpleMain(t *testing.T) {
	result, err := parseAndCheck(t, `
function void main() {
	let int x = 1;
	io.print(x);
}
`)
	require.NoError(t, err)
	require.Contains(t, result.Functions, "main")
}

func TestCheckTypeMismatchErrors(t *testing.T) {
	_, err := parseAndCheck(t, `
function void main() {
	let int x = true;
}
`)
	require.Error(t, err)
}

func TestCheckUnreachableFunctionDropped(t *testing.T) {
	result, err := parseAndCheck(t, `
function int unused(int n) {
	return n;
}
function void main() {
	let int x = 1;
	io.print(x);
}
`)
	require.NoError(t, err)
	require.Contains(t, result.Functions, "main")
	for name := range result.Functions {
		require.NotContains(t, name, "unused")
	}
}

func TestCheckOverloadResolution(t *testing.T) {
	result, err := parseAndCheck(t, `
function int inc_or_dec(int n) {
	return n + 1;
}
function bool inc_or_dec(bool b) {
	return b;
}
function void main() {
	let int x = inc_or_dec(1);
}
`)
	require.NoError(t, err)
	var found *ast.Function
	for _, fn := range result.Functions {
		if fn.Name == "inc_or_dec" {
			found = fn
		}
	}
	require.NotNil(t, found)
	require.Equal(t, "int", found.ReturnType)
}

func TestCheckBreakOutsideLoopIsError(t *testing.T) {
	_, err := parseAndCheck(t, `
function void main() {
	break;
}
`)
	require.Error(t, err)
}

func TestCheckStructAccess(t *testing.T) {
	result, err := parseAndCheck(t, `
struct Point {
	int x,
	int y,
}
function void main() {
	let Point p = new Point(1, 2);
	p.x = 5;
	io.print(p.x);
}
`)
	require.NoError(t, err)
	require.Contains(t, result.Functions, "main")
}

func TestCheckMissingMainIsError(t *testing.T) {
	_, err := parseAndCheck(t, `
function void notmain() {
	return;
}
`)
	require.Error(t, err)
}
