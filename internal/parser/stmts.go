package parser

import (
	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/lexer"
)

type stmtResult struct {
	stmt ast.StmtID
	tail ast.ExprID
}

func (p *Parser) parseStmtResult(allowTail bool) stmtResult {
	switch p.curTok.Type {
	case lexer.LET:
		return stmtResult{stmt: p.parseLetStmt()}
	case lexer.RETURN:
		return stmtResult{stmt: p.parseReturnStmt()}
	case lexer.WHILE:
		return stmtResult{stmt: p.parseWhileStmt()}
	case lexer.FOR:
		return stmtResult{stmt: p.parseForStmt()}
	case lexer.BREAK:
		return stmtResult{stmt: p.parseJumpStmt(ast.StmtBreak)}
	case lexer.CONTINUE:
		return stmtResult{stmt: p.parseJumpStmt(ast.StmtContinue)}
	default:
		return p.parseExprStmt(allowTail)
	}
}

func (p *Parser) parseLetStmt() ast.StmtID {
	start := p.curTok.Span

	mutable := false
	if p.peekTok.Type == lexer.MUT {
		p.nextToken()
		mutable = true
	}

	if !p.expect(lexer.IDENT) {
		return ast.NoStmt
	}
	name := p.identFromCur()

	typ := ast.NoType
	if p.peekTok.Type == lexer.COLON {
		p.nextToken()
		p.nextToken()

		typ = p.parseType()
		if !typ.IsValid() {
			return ast.NoStmt
		}
	}

	if !p.expect(lexer.ASSIGN) {
		return ast.NoStmt
	}
	p.nextToken()

	value := p.parseExpr()
	if !value.IsValid() {
		return ast.NoStmt
	}

	if !p.expect(lexer.SEMICOLON) {
		return ast.NoStmt
	}

	span := start.Merge(p.curTok.Span)
	p.nextToken()

	return p.tree.AddStmt(ast.Stmt{
		Kind:    ast.StmtLet,
		Span:    span,
		Name:    name,
		Mutable: mutable,
		Type:    typ,
		Value:   value,
	})
}

func (p *Parser) parseReturnStmt() ast.StmtID {
	start := p.curTok.Span

	if p.peekTok.Type == lexer.SEMICOLON {
		p.nextToken()
		span := start.Merge(p.curTok.Span)
		p.nextToken()
		return p.tree.AddStmt(ast.Stmt{Kind: ast.StmtReturn, Span: span})
	}

	p.nextToken()

	value := p.parseExpr()
	if !value.IsValid() {
		return ast.NoStmt
	}

	if !p.expect(lexer.SEMICOLON) {
		return ast.NoStmt
	}

	span := start.Merge(p.curTok.Span)
	p.nextToken()

	return p.tree.AddStmt(ast.Stmt{Kind: ast.StmtReturn, Span: span, Value: value})
}

func (p *Parser) parseWhileStmt() ast.StmtID {
	start := p.curTok.Span

	p.nextToken()

	cond := p.parseCondition()
	if !cond.IsValid() {
		return ast.NoStmt
	}

	if !p.expect(lexer.LBRACE) {
		return ast.NoStmt
	}

	body := p.parseBlockExpr()
	span := start.Merge(p.curTok.Span)
	if p.curTok.Type == lexer.RBRACE {
		p.nextToken()
	}

	return p.tree.AddStmt(ast.Stmt{
		Kind: ast.StmtWhile,
		Span: span,
		Cond: cond,
		Body: body,
	})
}

// parseForStmt parses "for x in from..to { ... }". The range bounds are plain
// expressions; '..' has no precedence entry so the Pratt loop stops there.
func (p *Parser) parseForStmt() ast.StmtID {
	start := p.curTok.Span

	if !p.expect(lexer.IDENT) {
		return ast.NoStmt
	}
	name := p.identFromCur()

	if !p.expect(lexer.IN) {
		return ast.NoStmt
	}
	p.nextToken()

	restore := p.noStructLit
	p.noStructLit = true
	from := p.parseExpr()
	if !from.IsValid() {
		p.noStructLit = restore
		return ast.NoStmt
	}

	if !p.expect(lexer.DOTDOT) {
		p.noStructLit = restore
		return ast.NoStmt
	}
	p.nextToken()

	to := p.parseExpr()
	p.noStructLit = restore
	if !to.IsValid() {
		return ast.NoStmt
	}

	if !p.expect(lexer.LBRACE) {
		return ast.NoStmt
	}

	body := p.parseBlockExpr()
	span := start.Merge(p.curTok.Span)
	if p.curTok.Type == lexer.RBRACE {
		p.nextToken()
	}

	return p.tree.AddStmt(ast.Stmt{
		Kind: ast.StmtFor,
		Span: span,
		Name: name,
		From: from,
		To:   to,
		Body: body,
	})
}

func (p *Parser) parseJumpStmt(kind ast.StmtKind) ast.StmtID {
	start := p.curTok.Span

	if !p.expect(lexer.SEMICOLON) {
		return ast.NoStmt
	}

	span := start.Merge(p.curTok.Span)
	p.nextToken()

	return p.tree.AddStmt(ast.Stmt{Kind: kind, Span: span})
}

func (p *Parser) parseExprStmt(allowTail bool) stmtResult {
	expr := p.parseExpr()
	if !expr.IsValid() {
		return stmtResult{}
	}

	switch p.peekTok.Type {
	case lexer.SEMICOLON:
		p.nextToken()
		span := p.tree.Expr(expr).Span.Merge(p.curTok.Span)
		stmt := p.tree.AddStmt(ast.Stmt{Kind: ast.StmtExpr, Span: span, Value: expr})
		p.nextToken()
		return stmtResult{stmt: stmt}
	case lexer.RBRACE:
		if allowTail {
			return stmtResult{tail: expr}
		}
	}

	// Block-shaped expressions terminate a statement without a semicolon.
	switch p.tree.Expr(expr).Kind {
	case ast.ExprIf, ast.ExprMatch, ast.ExprBlock:
		stmt := p.tree.AddStmt(ast.Stmt{Kind: ast.StmtExpr, Span: p.tree.Expr(expr).Span, Value: expr})
		p.nextToken()
		return stmtResult{stmt: stmt}
	}

	p.reportMissing("expected ';' after expression", p.peekTok.Span)

	// When the next token plainly starts a new statement, the semicolon alone
	// is missing. Keep the expression statement and consume nothing extra.
	if isStatementStart(p.peekTok.Type) || lexer.IsItemStart(p.peekTok.Type) {
		stmt := p.tree.AddStmt(ast.Stmt{Kind: ast.StmtExpr, Span: p.tree.Expr(expr).Span, Value: expr})
		p.nextToken()
		return stmtResult{stmt: stmt}
	}

	return stmtResult{}
}
