package parser

import (
	"os"
	"path/filepath"

	"github.com/hatchlang/hatch/lang/ast"
	"github.com/hatchlang/hatch/lang/token"
)

// importDecl parses "import a.b.c;" and, when p.importFile is set (i.e. not
// running under ParseSource), resolves and recursively parses the target
// file immediately (spec §4.1, "Import semantics").
func (p *Parser) importDecl() ast.Stmt {
	tok := p.advance() // 'import'
	var path []string
	for {
		name := p.expect(token.IDENT, "module name")
		path = append(path, name.Lexeme)
		if !p.match(token.DOT) {
			break
		}
	}
	p.expect(token.SEMI, "';'")

	imp := &ast.Import{P: tok.Pos, Path: path}
	if len(path) == 1 && path[0] == "io" {
		// io is predeclared directly on the root namespace by lang/checker
		// (it is not a file on LibPath); the import declaration is kept only
		// to document the dependency, same as a no-op in the original.
		return imp
	}
	if p.importFile == nil {
		p.errorAt(tok, "import not supported in this context")
		return imp
	}
	chunk, err := p.importFile(path)
	if err != nil {
		p.errorAt(tok, err.Error())
		return imp
	}
	imp.Chunk = chunk
	return imp
}

// resolveImport searches LibPath (current directory first) for the file
// implied by a dotted module path, then tokenizes and recursively parses it.
// Circular imports are not detected at this layer (spec §4.1): the checker
// flattens and rejects redefinition at resolution time.
func resolveImport(path []string) (*ast.Chunk, error) {
	rel := filepath.Join(path...) + ".hatch"
	for _, dir := range LibPath {
		candidate := filepath.Join(dir, rel)
		if _, err := os.Stat(candidate); err == nil {
			src, err := os.ReadFile(candidate)
			if err != nil {
				return nil, err
			}
			return ParseFile(candidate, src)
		}
	}
	return nil, &importNotFoundError{path: path}
}

type importNotFoundError struct{ path []string }

func (e *importNotFoundError) Error() string {
	joined := ""
	for i, p := range e.path {
		if i > 0 {
			joined += "."
		}
		joined += p
	}
	return "could not find module " + joined
}
