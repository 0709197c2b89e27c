package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/hatchlang/hatch/lang/scanner"
	"github.com/hatchlang/hatch/lang/token"
)

// Tokenize implements the "tokenize" diagnostic subcommand: run the
// scanner phase alone and print the resulting token stream.
func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var lastErr error
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			lastErr = err
			continue
		}

		s := scanner.New(path, src)
		for {
			tok := s.Scan()
			fmt.Fprintf(stdio.Stdout, "%s: %s\n", tok.Pos, tok)
			if tok.Kind == token.EOF {
				break
			}
		}
		if serr := s.Errs(); serr != nil {
			scanner.PrintError(stdio.Stderr, serr)
			lastErr = serr
		}
	}
	return lastErr
}
