package parser

import (
	"github.com/hatchlang/hatch/lang/ast"
	"github.com/hatchlang/hatch/lang/token"
)

// declaration parses one top-level-or-nested declaration: function, import,
// let, return, struct, or a plain statement.
func (p *Parser) declaration() ast.Stmt {
	var stmt ast.Stmt
	switch {
	case p.check(token.FUNCTION):
		stmt = p.function()
	case p.check(token.IMPORT):
		stmt = p.importDecl()
	case p.check(token.LET):
		stmt = p.letDecl()
		p.expect(token.SEMI, "';'")
	case p.check(token.RETURN):
		stmt = p.returnStmt()
	case p.check(token.STRUCT):
		stmt = p.structDecl()
	default:
		stmt = p.statement()
	}
	if p.errs.Len() > 0 {
		p.synchronize()
	}
	return stmt
}

func (p *Parser) function() ast.Stmt {
	tok := p.advance() // 'function'
	retType := p.expect(token.IDENT, "return type").Lexeme
	name := p.expect(token.IDENT, "function name").Lexeme
	p.expect(token.LPAREN, "'('")
	var params []ast.Param
	if !p.check(token.RPAREN) {
		params = append(params, p.param())
		for p.match(token.COMMA) {
			params = append(params, p.param())
		}
	}
	p.expect(token.RPAREN, "')'")
	body := p.block()
	return &ast.Function{P: tok.Pos, ReturnType: retType, Name: name, Params: params, Body: body, File: p.filename}
}

func (p *Parser) param() ast.Param {
	typ := p.expect(token.IDENT, "parameter type").Lexeme
	isArray := false
	if p.match(token.LBRACK) {
		p.expect(token.RBRACK, "']'")
		isArray = true
	}
	isRef := p.match(token.AMP)
	name := p.expect(token.IDENT, "parameter name").Lexeme
	return ast.Param{Type: typ, Name: name, IsArray: isArray, IsRef: isRef}
}

func (p *Parser) structDecl() ast.Stmt {
	tok := p.advance() // 'struct'
	name := p.expect(token.IDENT, "struct name").Lexeme
	p.expect(token.LBRACE, "'{'")
	var members []ast.StructMember
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		typ := p.expect(token.IDENT, "member type").Lexeme
		memberName := p.expect(token.IDENT, "member name").Lexeme
		members = append(members, ast.StructMember{Type: typ, Name: memberName})
		p.expect(token.COMMA, "','")
	}
	p.expect(token.RBRACE, "'}'")
	return &ast.Struct{P: tok.Pos, Name: name, Members: members}
}

// letDecl parses 'let' TYPE ('[' expr ']')? IDENT '=' (new_expr | expr),
// without consuming the trailing ';' (the for-loop initializer omits it).
func (p *Parser) letDecl() *ast.Let {
	tok := p.advance() // 'let'
	typ := p.expect(token.IDENT, "type").Lexeme
	isArray := false
	var size ast.Expr
	if p.match(token.LBRACK) {
		isArray = true
		if !p.check(token.RBRACK) {
			size = p.expr()
		}
		p.expect(token.RBRACK, "']'")
	}
	name := p.expect(token.IDENT, "variable name").Lexeme
	p.expect(token.EQ, "'='")
	let := &ast.Let{P: tok.Pos, Type: typ, IsArray: isArray, Size: size, Name: name}
	if p.check(token.NEW) {
		p.advance()
		p.expect(token.IDENT, "struct type") // struct type repeats the declared type; discard
		p.expect(token.LPAREN, "'('")
		if !p.check(token.RPAREN) {
			let.NewArgs = append(let.NewArgs, p.expr())
			for p.match(token.COMMA) {
				let.NewArgs = append(let.NewArgs, p.expr())
			}
		}
		p.expect(token.RPAREN, "')'")
		return let
	}
	let.Initial = p.expr()
	return let
}

func (p *Parser) returnStmt() ast.Stmt {
	tok := p.advance() // 'return'
	var val ast.Expr
	if !p.check(token.SEMI) {
		val = p.expr()
	}
	p.expect(token.SEMI, "';'")
	return &ast.Return{P: tok.Pos, Value: val}
}

func (p *Parser) statement() ast.Stmt {
	switch {
	case p.check(token.LBRACE):
		return p.block()
	case p.check(token.IF):
		return p.ifStmt()
	case p.check(token.FOR):
		return p.forStmt()
	case p.check(token.WHILE):
		return p.whileStmt()
	case p.check(token.BREAK):
		tok := p.advance()
		p.expect(token.SEMI, "';'")
		return &ast.Break{P: tok.Pos}
	case p.check(token.CONTINUE):
		tok := p.advance()
		p.expect(token.SEMI, "';'")
		return &ast.Continue{P: tok.Pos}
	default:
		return p.expressionStatement()
	}
}

func (p *Parser) block() *ast.Block {
	tok := p.expect(token.LBRACE, "'{'")
	b := &ast.Block{P: tok.Pos}
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		stmt := p.declaration()
		if stmt != nil {
			b.Stmts = append(b.Stmts, stmt)
		}
	}
	p.expect(token.RBRACE, "'}'")
	return b
}

func (p *Parser) ifStmt() ast.Stmt {
	tok := p.advance() // 'if'
	p.expect(token.LPAREN, "'('")
	cond := p.expr()
	p.expect(token.RPAREN, "')'")
	then := p.statement()
	n := &ast.If{P: tok.Pos, Cond: cond, Then: then}
	if p.match(token.ELSE) {
		n.Otherwise = p.statement()
	}
	return n
}

func (p *Parser) forStmt() ast.Stmt {
	tok := p.advance() // 'for'
	p.expect(token.LPAREN, "'('")
	var declare *ast.Let
	if p.check(token.LET) {
		declare = p.letDecl()
	}
	p.expect(token.SEMI, "';'")
	cond := p.expr()
	p.expect(token.SEMI, "';'")
	action := p.expressionStatementNoSemi()
	p.expect(token.RPAREN, "')'")
	body := p.statement()
	return &ast.For{P: tok.Pos, Declare: declare, Cond: cond, Action: action, Body: body}
}

func (p *Parser) whileStmt() ast.Stmt {
	tok := p.advance() // 'while'
	p.expect(token.LPAREN, "'('")
	cond := p.expr()
	p.expect(token.RPAREN, "')'")
	body := p.statement()
	return &ast.While{P: tok.Pos, Cond: cond, Body: body}
}

// expressionStatement parses an expression used as a statement, terminated
// by ';': a bare call, a post ++/--, or one of the three assignment forms
// (Assign/AssignIndex/AccessAssign), disambiguated by the lvalue shape of
// the left operand once an '=' is seen.
func (p *Parser) expressionStatement() ast.Stmt {
	stmt := p.expressionStatementNoSemi()
	p.expect(token.SEMI, "';'")
	return stmt
}

func (p *Parser) expressionStatementNoSemi() ast.Stmt {
	left := p.equality()
	if !p.check(token.EQ) {
		return exprAsStmt(left)
	}
	p.advance() // '='
	value := p.assignmentExpr()
	switch lv := left.(type) {
	case *ast.Variable:
		if bin, ok := value.(*ast.Binary); ok {
			if v, ok := bin.Left.(*ast.Variable); ok && v.Name == lv.Name {
				if lit, ok := bin.Right.(*ast.Literal); ok && lit.Type == "int" {
					if n, ok := literalIsOne(lit); ok && n {
						switch bin.Op {
						case token.PLUS:
							return &ast.Assign{P: lv.P, Name: lv.Name, Value: value, Increment: true}
						case token.MINUS:
							return &ast.Assign{P: lv.P, Name: lv.Name, Value: value, Decrement: true}
						}
					}
				}
			}
		}
		return &ast.Assign{P: lv.P, Name: lv.Name, Value: value}
	case *ast.Index:
		return &ast.AssignIndex{P: lv.P, Array: lv.Array, Index: lv.Index, Value: value}
	case *ast.Access:
		return &ast.AccessAssign{P: lv.P, Base: lv.Base, Member: lv.Member, Value: value}
	default:
		p.errorAt(p.prev(), "invalid assignment target")
		return &ast.ExprStmt{P: left.Pos(), X: left}
	}
}

// literalIsOne reports whether a Literal holds the int64 value 1, which is
// the only shape the in-place INC/DEC peephole applies to (spec §4.3.2).
func literalIsOne(lit *ast.Literal) (bool, bool) {
	n, ok := lit.Value.(int64)
	if !ok {
		return false, false
	}
	return n == 1, true
}

func exprAsStmt(e ast.Expr) ast.Stmt {
	if id, ok := e.(*ast.IncDec); ok {
		return &ast.ExprStmt{P: id.P, X: id, Increment: id.Increment, Decrement: !id.Increment}
	}
	return &ast.ExprStmt{P: e.Pos(), X: e}
}
