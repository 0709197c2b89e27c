package cli_test

import (
	"testing"

	"github.com/hatchlang/hatch/lang/checker"
	"github.com/hatchlang/hatch/lang/compiler"
	"github.com/hatchlang/hatch/lang/machine"
	"github.com/hatchlang/hatch/lang/parser"
	"github.com/stretchr/testify/require"
)

// runSource drives src through the whole pipeline (lang/parser ->
// lang/checker -> lang/compiler -> lang/machine) and returns the VM's
// output log, failing the test on any error along the way.
func runSource(t *testing.T, src string) []machine.Entry {
	t.Helper()
	chunk, err := parser.ParseSource("scenario.hatch", []byte(src))
	require.NoError(t, err)
	result, err := checker.Check(chunk)
	require.NoError(t, err)
	prog, err := compiler.Emit(result)
	require.NoError(t, err)
	img, err := compiler.Link(prog)
	require.NoError(t, err)
	m, err := machine.Load(img.Bytes)
	require.NoError(t, err)
	out, err := m.Run()
	require.NoError(t, err)
	return out
}

func ints(vals ...byte) []machine.Entry {
	out := make([]machine.Entry, len(vals))
	for i, v := range vals {
		out[i] = machine.Entry{Value: v}
	}
	return out
}

// TestScenarioHelloWorldScalarPrint is S1.
func TestScenarioHelloWorldScalarPrint(t *testing.T) {
	out := runSource(t, `
		import io;
		function int main() { let int x = 5; io.print(x); }`)
	require.Equal(t, ints(5), out)
}

// TestScenarioForLoopSequence is S2.
func TestScenarioForLoopSequence(t *testing.T) {
	out := runSource(t, `
		import io;
		function int main() { for (let int i=0; i<10; i=i+1) { io.print(i); } }`)
	require.Equal(t, ints(0, 1, 2, 3, 4, 5, 6, 7, 8, 9), out)
}

// TestScenarioRecursiveTriangleNumber is S3.
func TestScenarioRecursiveTriangleNumber(t *testing.T) {
	out := runSource(t, `
		import io;
		function int triangle(int n) {
		  if (n == 1) { return 1; } else { return n + triangle(n - 1); }
		}
		function int main() { io.print(triangle(5)); }`)
	require.Equal(t, ints(15), out)
}

// TestScenarioArrayMixedElementsAndMutation is S4.
func TestScenarioArrayMixedElementsAndMutation(t *testing.T) {
	out := runSource(t, `
		import io;
		function void main() {
		  let int x = 52;
		  let int[5] a = [51, x, 53, 54, 55];
		  a[4] = 60; a[0] = 0;
		  for (let int i=0; i<5; i=i+1) { io.print(a[i]); }
		}`)
	require.Equal(t, ints(0, 52, 53, 54, 60), out)
}

// TestScenarioBreakContinueInWhile is S5.
func TestScenarioBreakContinueInWhile(t *testing.T) {
	out := runSource(t, `
		import io;
		function void main() {
		  let int i = 0; let bool p = false;
		  while (true) {
		    i = i + 1;
		    if (i > 30) { break; }
		    if (p) { io.print(i); p = false; continue; }
		    p = true;
		  }
		}`)
	require.Equal(t, ints(2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 22, 24, 26, 28, 30), out)
}

// TestScenarioStructMemberReadWrite is S6.
func TestScenarioStructMemberReadWrite(t *testing.T) {
	out := runSource(t, `
		import io;
		struct Car { int wheels, int seats, }
		function int wps(Car c) { return c.wheels + c.seats; }
		function void main() {
		  let Car ford = new Car(4, 5);
		  io.print(ford.wheels); io.print(ford.seats);
		  io.print(wps(ford));
		  ford.seats = 7; io.print(ford.seats);
		}`)
	require.Equal(t, ints(4, 5, 9, 7), out)
}
