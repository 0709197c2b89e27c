package parser

import (
	"github.com/hatchlang/hatch/lang/ast"
	"github.com/hatchlang/hatch/lang/token"
)

func (p *Parser) expr() ast.Expr { return p.assignmentExpr() }

// assignmentExpr is the grammar's assignment level, but it parses only the
// equality expression below it and never an "=" — the statement-level assignment
// productions (Assign/AssignIndex/AccessAssign) are built by stmt.go from an
// expressionStatement, since an lvalue needs special-casing this language's
// AST does not fold into Expr.
func (p *Parser) assignmentExpr() ast.Expr {
	return p.equality()
}

func (p *Parser) equality() ast.Expr {
	left := p.comparison()
	for p.check(token.EQL) || p.check(token.NEQ) {
		op := p.advance()
		right := p.comparison()
		left = &ast.Binary{P: left.Pos(), Op: op.Kind, Left: left, Right: right}
	}
	return left
}

func (p *Parser) comparison() ast.Expr {
	left := p.term()
	for p.check(token.LT) || p.check(token.LE) || p.check(token.GT) || p.check(token.GE) {
		op := p.advance()
		right := p.term()
		left = &ast.Binary{P: left.Pos(), Op: op.Kind, Left: left, Right: right}
	}
	return left
}

func (p *Parser) term() ast.Expr {
	left := p.factor()
	for p.check(token.PLUS) || p.check(token.MINUS) {
		op := p.advance()
		right := p.factor()
		left = &ast.Binary{P: left.Pos(), Op: op.Kind, Left: left, Right: right}
	}
	return left
}

func (p *Parser) factor() ast.Expr {
	left := p.unary()
	for p.check(token.STAR) || p.check(token.SLASH) {
		op := p.advance()
		right := p.unary()
		left = &ast.Binary{P: left.Pos(), Op: op.Kind, Left: left, Right: right}
	}
	return left
}

func (p *Parser) unary() ast.Expr {
	if p.check(token.MINUS) {
		tok := p.advance()
		x := p.unary()
		return &ast.Unary{P: tok.Pos, Op: "-", X: x}
	}
	return p.call()
}

func (p *Parser) call() ast.Expr {
	e := p.arrayOrPrimary()
	for p.check(token.LPAREN) {
		p.advance()
		var args []ast.Expr
		if !p.check(token.RPAREN) {
			args = append(args, p.expr())
			for p.match(token.COMMA) {
				args = append(args, p.expr())
			}
		}
		p.expect(token.RPAREN, "')'")
		call := &ast.Call{P: e.Pos(), Args: args}
		call.Path = pathOf(e)
		e = call
	}
	return e
}

// pathOf flattens a chain of Access expressions rooted at a Variable into a
// dotted call path (e.g. io.print -> ["io", "print"]).
func pathOf(e ast.Expr) []string {
	switch e := e.(type) {
	case *ast.Variable:
		return []string{e.Name}
	case *ast.Access:
		return append(pathOf(e.Base), e.Member)
	default:
		return nil
	}
}

func (p *Parser) arrayOrPrimary() ast.Expr {
	if p.check(token.LBRACK) {
		tok := p.advance()
		arr := &ast.Array{P: tok.Pos}
		if !p.check(token.RBRACK) {
			arr.Elems = append(arr.Elems, p.expr())
			for p.match(token.COMMA) {
				arr.Elems = append(arr.Elems, p.expr())
			}
		}
		p.expect(token.RBRACK, "']'")
		return arr
	}
	return p.primary()
}

func (p *Parser) primary() ast.Expr {
	tok := p.cur()
	switch tok.Kind {
	case token.INT:
		p.advance()
		return &ast.Literal{P: tok.Pos, Type: "int", Value: tok.Literal}
	case token.CHAR:
		p.advance()
		return &ast.Literal{P: tok.Pos, Type: "char", Value: tok.Literal}
	case token.STRING:
		p.advance()
		return &ast.Literal{P: tok.Pos, Type: "string", Value: tok.Literal}
	case token.TRUE, token.FALSE:
		p.advance()
		return &ast.Literal{P: tok.Pos, Type: "bool", Value: tok.Literal}
	case token.IDENT:
		p.advance()
		var e ast.Expr = &ast.Variable{P: tok.Pos, Name: tok.Lexeme}
		return p.primarySuffixes(e)
	case token.LPAREN:
		p.advance()
		e := p.expr()
		p.expect(token.RPAREN, "')'")
		return e
	}
	p.errorAt(tok, "expected expression, got "+tok.String())
	p.advance()
	return &ast.Literal{P: tok.Pos, Type: "int", Value: int64(0)}
}

// primarySuffixes parses the zero-or-more trailing [index], .member and
// post ++/-- suffixes after an identifier.
func (p *Parser) primarySuffixes(e ast.Expr) ast.Expr {
	for {
		switch {
		case p.check(token.LBRACK):
			p.advance()
			idx := p.expr()
			p.expect(token.RBRACK, "']'")
			e = &ast.Index{P: e.Pos(), Array: e, Index: idx}
		case p.check(token.DOT):
			p.advance()
			member := p.expect(token.IDENT, "member name")
			e = &ast.Access{P: e.Pos(), Base: e, Member: member.Lexeme}
		case p.check(token.INC) || p.check(token.DEC):
			inc := p.check(token.INC)
			p.advance()
			if v, ok := e.(*ast.Variable); ok {
				return &ast.IncDec{P: e.Pos(), Name: v.Name, Increment: inc}
			}
			return e
		default:
			return e
		}
	}
}

