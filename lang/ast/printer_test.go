package ast_test

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/hatchlang/hatch/lang/ast"
	"github.com/hatchlang/hatch/lang/parser"
	"github.com/kylelemons/godebug/diff"
	"github.com/stretchr/testify/require"
)

var posSuffix = regexp.MustCompile(` @ .*$`)

// stripPos removes each line's trailing " @ file:line:col" so dumps of
// sources with different layouts but the same shape can be compared
// structurally.
func stripPos(dump string) string {
	lines := strings.Split(strings.TrimRight(dump, "\n"), "\n")
	for i, l := range lines {
		lines[i] = posSuffix.ReplaceAllString(l, "")
	}
	return strings.Join(lines, "\n")
}

// assertDump compares got against want, failing with a unified diff on
// mismatch.
func assertDump(t *testing.T, want, got string) {
	t.Helper()
	if want != got {
		t.Fatalf("AST dump mismatch (-want +got):\n%s", diff.Diff(want, got))
	}
}

func dump(t *testing.T, src string) string {
	t.Helper()
	chunk, err := parser.ParseSource("dump.hatch", []byte(src))
	require.NoError(t, err)
	var buf bytes.Buffer
	ast.Fprint(&buf, chunk.Block)
	return stripPos(buf.String())
}

func TestFprintLiteralAndBinary(t *testing.T) {
	got := dump(t, `
		function void main() {
			let int x = 1 + 2;
		}`)
	require.Contains(t, got, "Let int x")
	require.Contains(t, got, "Binary +")
}

func TestFprintStructShapeIsIndependentOfNames(t *testing.T) {
	one := dump(t, `function void main() { let int x = 1; io.print(x); }`)
	two := dump(t, `function void main() { let int y = 1; io.print(y); }`)
	assertDump(t, strings.ReplaceAll(one, " x", " y"), two)
}
