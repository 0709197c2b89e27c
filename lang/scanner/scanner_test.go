package scanner_test

import (
	"testing"

	"github.com/hatchlang/hatch/lang/scanner"
	"github.com/hatchlang/hatch/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	s := scanner.New("test.hatch", []byte(src))
	var toks []token.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	require.NoError(t, s.Errs())
	return toks
}

func TestScanBasics(t *testing.T) {
	toks := scanAll(t, `let int x = 5;`)
	kinds := make([]token.Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	require.Equal(t, []token.Kind{
		token.LET, token.IDENT, token.IDENT, token.EQ, token.INT, token.SEMI, token.EOF,
	}, kinds)
}

func TestScanStringEscapes(t *testing.T) {
	toks := scanAll(t, `"a\nb\x41"`)
	require.Len(t, toks, 2)
	require.Equal(t, "a\nbA", toks[0].Literal)
}

func TestScanIncDec(t *testing.T) {
	toks := scanAll(t, `i++; i--;`)
	require.Equal(t, token.INC, toks[1].Kind)
	require.Equal(t, token.DEC, toks[4].Kind)
}

func TestScanComment(t *testing.T) {
	toks := scanAll(t, "let // comment\nint x = 1;")
	require.Equal(t, token.LET, toks[0].Kind)
	require.Equal(t, token.IDENT, toks[1].Kind)
	require.Equal(t, 2, toks[1].Pos.Line)
}
