package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/hatchlang/hatch/lang/ast"
	"github.com/hatchlang/hatch/lang/parser"
	"github.com/hatchlang/hatch/lang/scanner"
)

// Parse implements the "parse" diagnostic subcommand: run the parser
// phase alone and print the resulting AST.
func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var lastErr error
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			lastErr = err
			continue
		}
		chunk, err := parser.ParseFile(path, src)
		if err != nil {
			scanner.PrintError(stdio.Stderr, err)
			lastErr = err
			continue
		}
		ast.Fprint(stdio.Stdout, chunk.Block)
	}
	return lastErr
}
