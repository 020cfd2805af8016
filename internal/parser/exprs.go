package parser

import (
	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
	"github.com/DrTomLLC/T-Programming-Language/internal/lexer"
)

func (p *Parser) parseExpr() ast.ExprID {
	return p.parseExprPrecedence(precedenceLowest)
}

// parseCondition parses the head expression of if/while/match, where an
// opening brace belongs to the body and never to a struct literal.
func (p *Parser) parseCondition() ast.ExprID {
	restore := p.noStructLit
	p.noStructLit = true
	expr := p.parseExpr()
	p.noStructLit = restore
	return expr
}

func (p *Parser) parseExprPrecedence(precedence int) ast.ExprID {
	prefix := p.prefixFns[p.curTok.Type]
	if prefix == nil {
		p.reportUnexpected("unexpected token in expression '"+describeToken(p.curTok)+"'", p.curTok.Span)
		return ast.NoExpr
	}

	left := prefix()
	if !left.IsValid() {
		return ast.NoExpr
	}

	for p.peekTok.Type != lexer.SEMICOLON && precedence < p.peekPrecedence() {
		infix := p.infixFns[p.peekTok.Type]
		if infix == nil {
			break
		}

		p.nextToken()

		left = infix(left)
		if !left.IsValid() {
			return ast.NoExpr
		}
	}

	return left
}

// parseIdentExpr handles the identifier-headed productions: a plain name, an
// enum path Enum::Variant, or a struct literal Name { field: value }.
func (p *Parser) parseIdentExpr() ast.ExprID {
	name := p.identFromCur()
	span := p.curTok.Span

	switch {
	case p.peekTok.Type == lexer.DOUBLE_COLON:
		p.nextToken()
		if !p.expect(lexer.IDENT) {
			return ast.NoExpr
		}
		return p.tree.AddExpr(ast.Expr{
			Kind: ast.ExprPath,
			Span: span.Merge(p.curTok.Span),
			Qual: name,
			Name: p.identFromCur(),
		})

	case p.peekTok.Type == lexer.LBRACE && !p.noStructLit:
		return p.parseStructLiteral(name, span)
	}

	return p.tree.AddExpr(ast.Expr{Kind: ast.ExprIdent, Span: span, Name: name})
}

func (p *Parser) parseStructLiteral(name ast.Ident, start diag.Span) ast.ExprID {
	p.nextToken() // '{'

	var fields []ast.FieldInit
	for p.peekTok.Type != lexer.RBRACE && p.peekTok.Type != lexer.EOF {
		if !p.expect(lexer.IDENT) {
			return ast.NoExpr
		}
		fieldName := p.identFromCur()

		if !p.expect(lexer.COLON) {
			return ast.NoExpr
		}
		p.nextToken()

		value := p.parseExpr()
		if !value.IsValid() {
			return ast.NoExpr
		}

		fields = append(fields, ast.FieldInit{
			Name:  fieldName,
			Value: value,
			Span:  fieldName.Span.Merge(p.curTok.Span),
		})

		if p.peekTok.Type == lexer.COMMA {
			p.nextToken()
			continue
		}
		break
	}

	if !p.expect(lexer.RBRACE) {
		return ast.NoExpr
	}

	return p.tree.AddExpr(ast.Expr{
		Kind:   ast.ExprStructLit,
		Span:   start.Merge(p.curTok.Span),
		Name:   name,
		Fields: fields,
	})
}

func (p *Parser) parseIntegerLiteral() ast.ExprID {
	return p.tree.AddExpr(ast.Expr{Kind: ast.ExprInt, Span: p.curTok.Span, Text: p.curTok.Lexeme})
}

func (p *Parser) parseFloatLiteral() ast.ExprID {
	return p.tree.AddExpr(ast.Expr{Kind: ast.ExprFloat, Span: p.curTok.Span, Text: p.curTok.Lexeme})
}

func (p *Parser) parseStringLiteral() ast.ExprID {
	return p.tree.AddExpr(ast.Expr{Kind: ast.ExprString, Span: p.curTok.Span, Text: p.curTok.Value})
}

func (p *Parser) parseCharLiteral() ast.ExprID {
	return p.tree.AddExpr(ast.Expr{Kind: ast.ExprChar, Span: p.curTok.Span, Text: p.curTok.Value})
}

func (p *Parser) parseBoolLiteral() ast.ExprID {
	return p.tree.AddExpr(ast.Expr{Kind: ast.ExprBool, Span: p.curTok.Span, Text: p.curTok.Lexeme})
}

// parsePrefixExpr consumes the operator before recursing so the prefix
// precedence level controls binding.
func (p *Parser) parsePrefixExpr() ast.ExprID {
	opTok := p.curTok

	p.nextToken()

	right := p.parseExprPrecedence(precedencePrefix)
	if !right.IsValid() {
		return ast.NoExpr
	}

	return p.tree.AddExpr(ast.Expr{
		Kind: ast.ExprUnary,
		Span: opTok.Span.Merge(p.tree.Expr(right).Span),
		Op:   opTok.Type,
		X:    right,
	})
}

// parseGroupedExpr parses "(expr)" without a paren node, "()" as the empty
// tuple, and "(a, b)" as a tuple literal. Struct literals are legal again
// inside the parens even in condition position.
func (p *Parser) parseGroupedExpr() ast.ExprID {
	start := p.curTok.Span

	if p.peekTok.Type == lexer.RPAREN {
		p.nextToken()
		return p.tree.AddExpr(ast.Expr{Kind: ast.ExprTuple, Span: start.Merge(p.curTok.Span)})
	}

	restore := p.noStructLit
	p.noStructLit = false

	p.nextToken()
	first := p.parseExpr()
	if !first.IsValid() {
		p.noStructLit = restore
		return ast.NoExpr
	}

	if p.peekTok.Type != lexer.COMMA {
		p.noStructLit = restore
		if !p.expect(lexer.RPAREN) {
			return ast.NoExpr
		}
		return first
	}

	elems := []ast.ExprID{first}
	for p.peekTok.Type == lexer.COMMA {
		p.nextToken()
		if p.peekTok.Type == lexer.RPAREN {
			break
		}
		p.nextToken()
		elem := p.parseExpr()
		if !elem.IsValid() {
			p.noStructLit = restore
			return ast.NoExpr
		}
		elems = append(elems, elem)
	}
	p.noStructLit = restore

	if !p.expect(lexer.RPAREN) {
		return ast.NoExpr
	}

	return p.tree.AddExpr(ast.Expr{
		Kind: ast.ExprTuple,
		Span: start.Merge(p.curTok.Span),
		List: elems,
	})
}

func (p *Parser) parseArrayLiteral() ast.ExprID {
	start := p.curTok.Span

	var elems []ast.ExprID
	if p.peekTok.Type == lexer.RBRACKET {
		p.nextToken()
	} else {
		restore := p.noStructLit
		p.noStructLit = false
		for {
			p.nextToken()
			elem := p.parseExpr()
			if !elem.IsValid() {
				p.noStructLit = restore
				return ast.NoExpr
			}
			elems = append(elems, elem)

			if p.peekTok.Type != lexer.COMMA {
				break
			}
			p.nextToken()
			if p.peekTok.Type == lexer.RBRACKET {
				break
			}
		}
		p.noStructLit = restore
		if !p.expect(lexer.RBRACKET) {
			return ast.NoExpr
		}
	}

	return p.tree.AddExpr(ast.Expr{
		Kind: ast.ExprArray,
		Span: start.Merge(p.curTok.Span),
		List: elems,
	})
}

func (p *Parser) parseIfExpr() ast.ExprID {
	start := p.curTok.Span

	p.nextToken()

	cond := p.parseCondition()
	if !cond.IsValid() {
		return ast.NoExpr
	}

	if !p.expect(lexer.LBRACE) {
		return ast.NoExpr
	}

	then := p.parseBlockExpr()
	span := start.Merge(p.curTok.Span)

	elseExpr := ast.NoExpr
	if p.peekTok.Type == lexer.ELSE {
		p.nextToken()

		if p.peekTok.Type == lexer.IF {
			p.nextToken()
			elseExpr = p.parseIfExpr()
		} else {
			if !p.expect(lexer.LBRACE) {
				return ast.NoExpr
			}
			elseExpr = p.parseBlockExpr()
		}
		if !elseExpr.IsValid() {
			return ast.NoExpr
		}
		span = span.Merge(p.tree.Expr(elseExpr).Span)
	}

	return p.tree.AddExpr(ast.Expr{
		Kind: ast.ExprIf,
		Span: span,
		X:    cond,
		Y:    then,
		Else: elseExpr,
	})
}

func (p *Parser) parseMatchExpr() ast.ExprID {
	start := p.curTok.Span

	p.nextToken()

	scrutinee := p.parseCondition()
	if !scrutinee.IsValid() {
		return ast.NoExpr
	}

	if !p.expect(lexer.LBRACE) {
		return ast.NoExpr
	}

	var arms []ast.MatchArm
	for p.peekTok.Type != lexer.RBRACE && p.peekTok.Type != lexer.EOF {
		p.nextToken()
		armStart := p.curTok.Span

		pat := p.parsePattern()
		if !pat.IsValid() {
			p.recoverMatchArm()
			continue
		}

		guard := ast.NoExpr
		if p.peekTok.Type == lexer.IF {
			p.nextToken()
			p.nextToken()
			guard = p.parseExpr()
			if !guard.IsValid() {
				p.recoverMatchArm()
				continue
			}
		}

		if !p.expect(lexer.FATARROW) {
			p.recoverMatchArm()
			continue
		}
		p.nextToken()

		body := p.parseExpr()
		if !body.IsValid() {
			p.recoverMatchArm()
			continue
		}

		arms = append(arms, ast.MatchArm{
			Pat:   pat,
			Guard: guard,
			Body:  body,
			Span:  armStart.Merge(p.curTok.Span),
		})

		if p.peekTok.Type == lexer.COMMA {
			p.nextToken()
		} else if p.peekTok.Type != lexer.RBRACE {
			p.reportMissing("expected ',' after match arm", p.peekTok.Span)
		}
	}

	if !p.expect(lexer.RBRACE) {
		return ast.NoExpr
	}

	return p.tree.AddExpr(ast.Expr{
		Kind: ast.ExprMatch,
		Span: start.Merge(p.curTok.Span),
		X:    scrutinee,
		Arms: arms,
	})
}

// recoverMatchArm skips to the next arm boundary after a broken arm.
func (p *Parser) recoverMatchArm() {
	for p.peekTok.Type != lexer.COMMA && p.peekTok.Type != lexer.RBRACE && p.peekTok.Type != lexer.EOF {
		p.nextToken()
	}
	if p.peekTok.Type == lexer.COMMA {
		p.nextToken()
	}
}

func (p *Parser) parseBlockLiteral() ast.ExprID {
	return p.parseBlockExpr()
}

// parseBlockExpr parses "{ stmt* tail? }" starting at the opening brace and
// leaves curTok on the closing brace. A trailing expression without a
// semicolon becomes the block's tail value.
func (p *Parser) parseBlockExpr() ast.ExprID {
	start := p.curTok.Span

	var stmts []ast.StmtID
	tail := ast.NoExpr

	p.nextToken()

	for p.curTok.Type != lexer.RBRACE && p.curTok.Type != lexer.EOF {
		prevTok := p.curTok

		result := p.parseStmtResult(true)
		if result.stmt.IsValid() {
			stmts = append(stmts, result.stmt)
			continue
		}

		if result.tail.IsValid() {
			tail = result.tail
			p.nextToken()
			break
		}

		if p.curTok.Type == lexer.RBRACE || p.curTok.Type == lexer.EOF {
			break
		}

		p.recoverStatement(prevTok)
	}

	if p.curTok.Type != lexer.RBRACE {
		p.reportMissing("expected '}' to close block", p.curTok.Span)
	}

	return p.tree.AddExpr(ast.Expr{
		Kind:  ast.ExprBlock,
		Span:  start.Merge(p.curTok.Span),
		Stmts: stmts,
		Tail:  tail,
	})
}

func (p *Parser) parseInfixExpr(left ast.ExprID) ast.ExprID {
	opTok := p.curTok
	precedence := p.curPrecedence()

	p.nextToken()

	right := p.parseExprPrecedence(precedence)
	if !right.IsValid() {
		return ast.NoExpr
	}

	return p.tree.AddExpr(ast.Expr{
		Kind: ast.ExprBinary,
		Span: p.tree.Expr(left).Span.Merge(p.tree.Expr(right).Span),
		Op:   opTok.Type,
		X:    left,
		Y:    right,
	})
}

// parseAssignExpr is right-associative: a = b = c assigns b first.
func (p *Parser) parseAssignExpr(left ast.ExprID) ast.ExprID {
	switch p.tree.Expr(left).Kind {
	case ast.ExprIdent, ast.ExprIndex, ast.ExprField:
	default:
		p.reportUnexpected("invalid assignment target", p.tree.Expr(left).Span)
	}

	p.nextToken()

	right := p.parseExprPrecedence(precedenceAssign - 1)
	if !right.IsValid() {
		return ast.NoExpr
	}

	return p.tree.AddExpr(ast.Expr{
		Kind: ast.ExprAssign,
		Span: p.tree.Expr(left).Span.Merge(p.tree.Expr(right).Span),
		X:    left,
		Y:    right,
	})
}

func (p *Parser) parseCallExpr(callee ast.ExprID) ast.ExprID {
	var args []ast.ExprID

	if p.peekTok.Type == lexer.RPAREN {
		p.nextToken()
	} else {
		restore := p.noStructLit
		p.noStructLit = false
		for {
			p.nextToken()
			arg := p.parseExpr()
			if !arg.IsValid() {
				p.noStructLit = restore
				return ast.NoExpr
			}
			args = append(args, arg)

			if p.peekTok.Type != lexer.COMMA {
				break
			}
			p.nextToken()
			if p.peekTok.Type == lexer.RPAREN {
				break
			}
		}
		p.noStructLit = restore
		if !p.expect(lexer.RPAREN) {
			return ast.NoExpr
		}
	}

	return p.tree.AddExpr(ast.Expr{
		Kind: ast.ExprCall,
		Span: p.tree.Expr(callee).Span.Merge(p.curTok.Span),
		X:    callee,
		List: args,
	})
}

func (p *Parser) parseIndexExpr(target ast.ExprID) ast.ExprID {
	p.nextToken()

	index := p.parseExpr()
	if !index.IsValid() {
		return ast.NoExpr
	}

	if !p.expect(lexer.RBRACKET) {
		return ast.NoExpr
	}

	return p.tree.AddExpr(ast.Expr{
		Kind: ast.ExprIndex,
		Span: p.tree.Expr(target).Span.Merge(p.curTok.Span),
		X:    target,
		Y:    index,
	})
}

// parseFieldExpr parses ".name" struct field access and ".0" tuple element
// access; the tuple index stays textual until the checker reads it.
func (p *Parser) parseFieldExpr(target ast.ExprID) ast.ExprID {
	if p.peekTok.Type != lexer.IDENT && p.peekTok.Type != lexer.INT {
		p.reportMissing("expected field name after '.'", p.peekTok.Span)
		return ast.NoExpr
	}
	p.nextToken()

	return p.tree.AddExpr(ast.Expr{
		Kind: ast.ExprField,
		Span: p.tree.Expr(target).Span.Merge(p.curTok.Span),
		X:    target,
		Name: p.identFromCur(),
	})
}
