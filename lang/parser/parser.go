// Package parser implements a recursive-descent parser from a lang/scanner
// token stream to a lang/ast tree, following this grammar (design-level, not
// source-literal — see spec.md §4.1):
//
//	program        := declaration*
//	declaration    := function | import | let | return | struct | statement
//	function       := 'function' TYPE IDENT '(' params? ')' block
//	params         := param (',' param)*
//	param          := TYPE ('[' ']')? '&'? IDENT
//	struct         := 'struct' IDENT '{' (TYPE IDENT ',')+ '}'
//	let            := 'let' TYPE ('[' expr ']')? IDENT '=' (new_expr | expr) ';'
//	new_expr       := 'new' TYPE '(' expr (',' expr)* ')'
//	statement      := block | if | for | while | break | continue | expr ';'
//	if             := 'if' '(' expr ')' statement ('else' statement)?
//	for            := 'for' '(' let_noSemi ';' expr ';' expr ')' statement
//	while          := 'while' '(' expr ')' statement
//	expr           := assignment
//	assignment     := equality ('=' assignment)?
//	equality       := comparison (('==' | '!=') comparison)*
//	comparison     := term (('<' | '<=' | '>' | '>=') term)*
//	term           := factor (('+' | '-') factor)*
//	factor         := unary (('*' | '/') unary)*
//	unary          := '-' unary | call
//	call           := array ('(' args? ')')*
//	array          := '[' expr (',' expr)* ']' | primary
//	primary        := literal | IDENT ('[' expr ']' | '.' IDENT (…) | '++' | '--')?
package parser

import (
	"fmt"
	goscanner "go/scanner"
	gotoken "go/token"

	"github.com/hatchlang/hatch/lang/ast"
	"github.com/hatchlang/hatch/lang/scanner"
	"github.com/hatchlang/hatch/lang/token"
)

// LibPath is the hardcoded import search path, in order (spec §6).
var LibPath = []string{"./", "./lib/", "../lib/", "../../lib/"}

// Parser recursively descends a single file's token stream.
type Parser struct {
	filename string
	toks     []token.Token
	pos      int
	errs     goscanner.ErrorList

	// importFile resolves "a.b.c" to a file path and invokes the lexer and
	// parser on it recursively; nil for a Parser not processing imports
	// (e.g. in unit tests).
	importFile func(path []string) (*ast.Chunk, error)
}

// ParseFile tokenizes and parses filename, resolving imports recursively
// along LibPath. The returned error, if non-nil, is a scanner.ErrorList.
func ParseFile(filename string, src []byte) (*ast.Chunk, error) {
	p := newParser(filename, src)
	p.importFile = func(path []string) (*ast.Chunk, error) {
		return resolveImport(path)
	}
	return p.parseChunk()
}

// ParseSource parses src as filename without resolving any imports; an
// "import a.b;" declaration in src is a parse error in this mode, except
// "import io;", which is a no-op in every mode. Used by tests that don't
// want filesystem access.
func ParseSource(filename string, src []byte) (*ast.Chunk, error) {
	return newParser(filename, src).parseChunk()
}

func newParser(filename string, src []byte) *Parser {
	s := scanner.New(filename, src)
	var toks []token.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	p := &Parser{filename: filename, toks: toks}
	if err := s.Errs(); err != nil {
		if el, ok := err.(goscanner.ErrorList); ok {
			p.errs = append(p.errs, el...)
		}
	}
	return p
}

func (p *Parser) parseChunk() (*ast.Chunk, error) {
	block := &ast.Block{}
	imports := make(map[string]*ast.Import)
	block.P = p.cur().Pos
	for !p.check(token.EOF) {
		stmt := p.declaration()
		if stmt == nil {
			continue
		}
		if imp, ok := stmt.(*ast.Import); ok {
			imports[imp.Path[len(imp.Path)-1]] = imp
		}
		block.Stmts = append(block.Stmts, stmt)
	}
	if p.errs.Len() > 0 {
		p.errs.Sort()
		return nil, p.errs
	}
	return &ast.Chunk{Name: p.filename, Block: block, Imports: imports}, nil
}

// --- token cursor helpers ---

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) prev() token.Token { return p.toks[p.pos-1] }

func (p *Parser) check(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() token.Token {
	if !p.check(token.EOF) {
		p.pos++
	}
	return p.prev()
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expect(k token.Kind, what string) token.Token {
	if p.check(k) {
		return p.advance()
	}
	p.errorAt(p.cur(), fmt.Sprintf("expected %s, got %s", what, p.cur()))
	return p.cur()
}

func (p *Parser) errorAt(tok token.Token, msg string) {
	p.errs.Add(gotoken.Position{Filename: tok.Pos.Filename, Line: tok.Pos.Line, Column: tok.Pos.Column}, msg)
}

// synchronize discards tokens until a plausible statement boundary, so the
// parser can keep surfacing additional diagnostics (spec §4.1 error policy).
func (p *Parser) synchronize() {
	for !p.check(token.EOF) {
		if p.prev().Kind == token.SEMI || p.prev().Kind == token.RBRACE {
			return
		}
		switch p.cur().Kind {
		case token.FUNCTION, token.LET, token.IF, token.FOR, token.WHILE,
			token.RETURN, token.STRUCT, token.IMPORT:
			return
		}
		p.advance()
	}
}
