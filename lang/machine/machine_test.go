package machine_test

import (
	"testing"

	"github.com/hatchlang/hatch/lang/checker"
	"github.com/hatchlang/hatch/lang/compiler"
	"github.com/hatchlang/hatch/lang/machine"
	"github.com/hatchlang/hatch/lang/parser"
	"github.com/stretchr/testify/require"
)

// run compiles src end to end and executes the resulting image, failing
// the test on any error along the way.
func run(t *testing.T, src string) []machine.Entry {
	t.Helper()
	chunk, err := parser.ParseSource("test.hatch", []byte(src))
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

func intEntries(vals ...byte) []machine.Entry {
	out := make([]machine.Entry, len(vals))
	for i, v := range vals {
		out[i] = machine.Entry{Value: v}
	}
	return out
}

func TestEmptyMainHaltsImmediately(t *testing.T) {
	out := run(t, `function void main() { }`)
	require.Empty(t, out)
}

func TestPrintLiteral(t *testing.T) {
	out := run(t, `
		function void main() {
			io.print(42);
		}`)
	require.Equal(t, intEntries(42), out)
}

func TestArithmetic(t *testing.T) {
	out := run(t, `
		function void main() {
			let int x = 3;
			let int y = 4;
			io.print(x + y * 2);
		}`)
	require.Equal(t, intEntries(11), out)
}

func TestArithmeticWraps(t *testing.T) {
	out := run(t, `
		function void main() {
			let int x = 250;
			let int y = 10;
			io.print(x + y);
		}`)
	require.Equal(t, intEntries(4), out)
}

func TestIfElse(t *testing.T) {
	out := run(t, `
		function void main() {
			let int x = 5;
			if (x == 5) {
				io.print(1);
			} else {
				io.print(0);
			}
			if (x == 6) {
				io.print(1);
			} else {
				io.print(0);
			}
		}`)
	require.Equal(t, intEntries(1, 0), out)
}

func TestForLoopSum(t *testing.T) {
	out := run(t, `
		function void main() {
			let int total = 0;
			for (let int i = 0; i < 5; i++) {
				total = total + i;
			}
			io.print(total);
		}`)
	require.Equal(t, intEntries(10), out)
}

func TestWhileBreakContinue(t *testing.T) {
	out := run(t, `
		function void main() {
			let int i = 0;
			while (i < 10) {
				i = i + 1;
				if (i == 5) {
					continue;
				}
				io.print(i);
				if (i == 8) {
					break;
				}
			}
		}`)
	require.Equal(t, intEntries(1, 2, 3, 4, 6, 7, 8), out)
}

func TestFunctionCallReturnsValue(t *testing.T) {
	out := run(t, `
		function int double(int x) {
			return x * 2;
		}
		function void main() {
			io.print(double(21));
		}`)
	require.Equal(t, intEntries(42), out)
}

func TestRecursiveFunctionCall(t *testing.T) {
	out := run(t, `
		function int fact(int n) {
			if (n <= 1) {
				return 1;
			}
			return n * fact(n - 1);
		}
		function void main() {
			io.print(fact(5));
		}`)
	require.Equal(t, intEntries(120), out)
}

func TestArrayIndexing(t *testing.T) {
	out := run(t, `
		function void main() {
			let int[3] a = [10, 20, 30];
			io.print(a[0]);
			io.print(a[1]);
			io.print(a[2]);
		}`)
	require.Equal(t, intEntries(10, 20, 30), out)
}

// TestLiteralArrayFromDataSection exercises a literal array long enough
// (spec §4.3.3: 20+length <= 2+6*length, i.e. length >= 4) to take the
// runtime copy-from-data-section loop rather than the manual per-element
// STA path exercised by TestArrayIndexing's length-3 array.
func TestLiteralArrayFromDataSection(t *testing.T) {
	out := run(t, `
		function void main() {
			let int[5] a = [11, 22, 33, 44, 55];
			io.print(a[0]);
			io.print(a[1]);
			io.print(a[2]);
			io.print(a[3]);
			io.print(a[4]);
		}`)
	require.Equal(t, intEntries(11, 22, 33, 44, 55), out)
}

func TestArrayAssignment(t *testing.T) {
	out := run(t, `
		function void main() {
			let int[3] a = [1, 2, 3];
			a[1] = 99;
			io.print(a[1]);
		}`)
	require.Equal(t, intEntries(99), out)
}

func TestPrintChar(t *testing.T) {
	out := run(t, `
		function void main() {
			io.print_char('A');
		}`)
	require.Equal(t, []machine.Entry{{Char: true, Value: 'A'}}, out)
}

func TestDivisionByZeroAborts(t *testing.T) {
	chunk, err := parser.ParseSource("test.hatch", []byte(`
		function void main() {
			let int x = 1;
			let int y = 0;
			io.print(x / y);
		}`))
	require.NoError(t, err)
	result, err := checker.Check(chunk)
	require.NoError(t, err)
	prog, err := compiler.Emit(result)
	require.NoError(t, err)
	img, err := compiler.Link(prog)
	require.NoError(t, err)
	m, err := machine.Load(img.Bytes)
	require.NoError(t, err)
	_, err = m.Run()
	require.ErrorContains(t, err, "division by zero")
}
