package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mna/mainer"

	"github.com/hatchlang/hatch/lang/ast"
	"github.com/hatchlang/hatch/lang/checker"
	"github.com/hatchlang/hatch/lang/compiler"
	"github.com/hatchlang/hatch/lang/parser"
	"github.com/hatchlang/hatch/lang/scanner"
)

// Compile implements the "compile" subcommand (spec §6): each path runs
// the full pipeline and, on success, is written out as path-with-.hb next
// to the source.
func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		if err := compileFile(stdio, c.Debug, path); err != nil {
			return err
		}
	}
	return nil
}

func compileFile(stdio mainer.Stdio, debug bool, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	chunk, err := parser.ParseFile(path, src)
	if err != nil {
		scanner.PrintError(stdio.Stderr, err)
		return err
	}
	if debug {
		ast.Fprint(stdio.Stdout, chunk.Block)
	}

	result, err := checker.Check(chunk)
	if err != nil {
		scanner.PrintError(stdio.Stderr, err)
		return err
	}

	prog, err := compiler.Emit(result)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	if debug {
		fmt.Fprint(stdio.Stdout, prog.Listing())
	}

	img, err := compiler.Link(prog)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	out := hbPath(path)
	if err := os.WriteFile(out, img.Bytes, 0o644); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	return nil
}

// hbPath replaces path's extension with ".hb" (spec §6: .hatch source
// compiles to a .hb image of the same base name).
func hbPath(path string) string {
	if ext := strings.LastIndex(path, "."); ext >= 0 {
		return path[:ext] + ".hb"
	}
	return path + ".hb"
}
