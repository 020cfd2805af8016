package parser

import (
	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/lexer"
)

// parseType parses a type annotation starting at curTok and leaves curTok on
// the annotation's last token.
func (p *Parser) parseType() ast.TypeID {
	switch p.curTok.Type {
	case lexer.IDENT:
		return p.parseNamedType()
	case lexer.FN:
		return p.parseFnType()
	case lexer.LBRACKET:
		return p.parseArrayType()
	case lexer.LPAREN:
		return p.parseTupleType()
	default:
		p.reportUnexpected("expected type expression, found '"+describeToken(p.curTok)+"'", p.curTok.Span)
		return ast.NoType
	}
}

func (p *Parser) parseNamedType() ast.TypeID {
	name := p.identFromCur()
	span := p.curTok.Span

	var args []ast.TypeID
	if p.peekTok.Type == lexer.LBRACKET {
		p.nextToken()
		for {
			p.nextToken()
			arg := p.parseType()
			if !arg.IsValid() {
				return ast.NoType
			}
			args = append(args, arg)

			if p.peekTok.Type == lexer.COMMA {
				p.nextToken()
				continue
			}
			break
		}
		if !p.expect(lexer.RBRACKET) {
			return ast.NoType
		}
		span = span.Merge(p.curTok.Span)
	}

	return p.tree.AddType(ast.TypeExpr{
		Kind: ast.TypeName,
		Span: span,
		Name: name,
		Args: args,
	})
}

func (p *Parser) parseFnType() ast.TypeID {
	start := p.curTok.Span

	if !p.expect(lexer.LPAREN) {
		return ast.NoType
	}

	var params []ast.TypeID
	if p.peekTok.Type == lexer.RPAREN {
		p.nextToken()
	} else {
		for {
			p.nextToken()
			param := p.parseType()
			if !param.IsValid() {
				return ast.NoType
			}
			params = append(params, param)

			if p.peekTok.Type == lexer.COMMA {
				p.nextToken()
				continue
			}
			break
		}
		if !p.expect(lexer.RPAREN) {
			return ast.NoType
		}
	}

	ret := ast.NoType
	if p.peekTok.Type == lexer.ARROW {
		p.nextToken()
		p.nextToken()
		ret = p.parseType()
		if !ret.IsValid() {
			return ast.NoType
		}
	}

	return p.tree.AddType(ast.TypeExpr{
		Kind: ast.TypeFn,
		Span: start.Merge(p.curTok.Span),
		Args: params,
		Elem: ret,
	})
}

func (p *Parser) parseArrayType() ast.TypeID {
	start := p.curTok.Span

	p.nextToken()
	elem := p.parseType()
	if !elem.IsValid() {
		return ast.NoType
	}

	if !p.expect(lexer.RBRACKET) {
		return ast.NoType
	}

	return p.tree.AddType(ast.TypeExpr{
		Kind: ast.TypeArray,
		Span: start.Merge(p.curTok.Span),
		Elem: elem,
	})
}

// parseTupleType parses "(T1, T2, ...)". An empty pair of parens is the unit
// type, a zero-element tuple.
func (p *Parser) parseTupleType() ast.TypeID {
	start := p.curTok.Span

	var args []ast.TypeID
	if p.peekTok.Type == lexer.RPAREN {
		p.nextToken()
	} else {
		for {
			p.nextToken()
			arg := p.parseType()
			if !arg.IsValid() {
				return ast.NoType
			}
			args = append(args, arg)

			if p.peekTok.Type == lexer.COMMA {
				p.nextToken()
				continue
			}
			break
		}
		if !p.expect(lexer.RPAREN) {
			return ast.NoType
		}
	}

	return p.tree.AddType(ast.TypeExpr{
		Kind: ast.TypeTuple,
		Span: start.Merge(p.curTok.Span),
		Args: args,
	})
}
