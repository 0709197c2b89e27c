package compiler_test

import (
	"bytes"
	"testing"

	"github.com/hatchlang/hatch/lang/checker"
	"github.com/hatchlang/hatch/lang/compiler"
	"github.com/hatchlang/hatch/lang/parser"
	"github.com/stretchr/testify/require"
)

// buildImage runs src through the full front end and returns the linked
// image, failing the test on any error along the way.
func buildImage(t *testing.T, src string) *compiler.Image {
	t.Helper()
	chunk, err := parser.ParseSource("test.hatch", []byte(src))
	require.NoError(t, err)
	result, err := checker.Check(chunk)
	require.NoError(t, err)
	prog, err := compiler.Emit(result)
	require.NoError(t, err)
	img, err := compiler.Link(prog)
	require.NoError(t, err)
	return img
}

func TestEmptyMainProducesHalt(t *testing.T) {
	img := buildImage(t, `function void main() { }`)
	require.Equal(t, []byte{byte(compiler.HLT), 0}, img.Bytes)
}

func TestIfElseConditionShapesEndInHalt(t *testing.T) {
	cases := []struct {
		desc string
		src  string
	}{
		{"binary condition", `
			function void main() {
				let int x = 1;
				if (x == 1) {
					io.print(1);
				} else {
					io.print(2);
				}
			}`},
		{"bare variable condition", `
			function void main() {
				let bool b = true;
				if (b) {
					io.print(1);
				} else {
					io.print(2);
				}
			}`},
		{"literal true condition", `
			function void main() {
				if (true) {
					io.print(1);
				} else {
					io.print(2);
				}
			}`},
		{"literal false condition", `
			function void main() {
				if (false) {
					io.print(1);
				} else {
					io.print(2);
				}
			}`},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			img := buildImage(t, c.src)
			require.NotEmpty(t, img.Bytes)
			require.Equal(t, byte(compiler.HLT), img.Bytes[len(img.Bytes)-2]&0x1F)
		})
	}
}

func TestForLoopBacktracksToComparison(t *testing.T) {
	img := buildImage(t, `
		function void main() {
			for (let int i = 0; i < 10; i++) {
				io.print(i);
			}
		}`)
	require.NotEmpty(t, img.Bytes)
}

func TestWhileLoopWithBreakAndContinue(t *testing.T) {
	img := buildImage(t, `
		function void main() {
			let int i = 0;
			while (i < 10) {
				i = i + 1;
				if (i == 5) {
					continue;
				}
				if (i == 8) {
					break;
				}
				io.print(i);
			}
		}`)
	require.NotEmpty(t, img.Bytes)
}

func TestFunctionCallRoundtrip(t *testing.T) {
	img := buildImage(t, `
		function int double(int x) {
			return x * 2;
		}
		function void main() {
			let int r = double(21);
			io.print(r);
		}`)
	require.NotEmpty(t, img.Bytes)
}

func TestUnreachableFunctionOmitted(t *testing.T) {
	withDead := buildImage(t, `
		function int unused(int x) {
			return x + 1;
		}
		function void main() {
			io.print(1);
		}`)
	withoutDead := buildImage(t, `
		function void main() {
			io.print(1);
		}`)
	require.Equal(t, withoutDead.Bytes, withDead.Bytes)
}

func TestDuplicateArrayLiteralsShareDataSection(t *testing.T) {
	img := buildImage(t, `
		function void main() {
			let int[5] a = [1, 2, 3, 4, 5];
			let int[5] b = [1, 2, 3, 4, 5];
			io.print(a[0]);
			io.print(b[0]);
		}`)
	require.NotEmpty(t, img.Bytes)
	require.Equal(t, 1, bytes.Count(img.Bytes, []byte{1, 2, 3, 4, 5}))
}

func TestImageTooLargeFails(t *testing.T) {
	src := "function void main() {\n"
	for i := 0; i < 200; i++ {
		src += "io.print(1);\n"
	}
	src += "}\n"
	chunk, err := parser.ParseSource("big.hatch", []byte(src))
	require.NoError(t, err)
	result, err := checker.Check(chunk)
	require.NoError(t, err)
	prog, err := compiler.Emit(result)
	require.NoError(t, err)
	_, err = compiler.Link(prog)
	require.ErrorContains(t, err, "too large")
}
