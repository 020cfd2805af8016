package parser

import (
	"unicode"
	"unicode/utf8"

	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/lexer"
)

// parsePattern parses a match pattern starting at curTok and leaves curTok on
// the pattern's last token.
func (p *Parser) parsePattern() ast.PatID {
	switch p.curTok.Type {
	case lexer.IDENT:
		return p.parseNamePattern()
	case lexer.INT, lexer.FLOAT, lexer.STRING, lexer.CHAR, lexer.TRUE, lexer.FALSE:
		return p.parseLiteralPattern()
	case lexer.LPAREN:
		return p.parseTuplePattern()
	default:
		p.reportUnexpected("expected pattern, found '"+describeToken(p.curTok)+"'", p.curTok.Span)
		return ast.NoPat
	}
}

// parseNamePattern disambiguates the identifier-headed patterns: '_' is the
// wildcard, 'Enum::Variant' and 'Variant(..)' are variant patterns, a
// capitalized bare name is a unit variant, and anything else binds.
func (p *Parser) parseNamePattern() ast.PatID {
	name := p.identFromCur()
	span := p.curTok.Span

	if name.Name == "_" {
		return p.tree.AddPat(ast.Pattern{Kind: ast.PatWildcard, Span: span})
	}

	var qual ast.Ident
	if p.peekTok.Type == lexer.DOUBLE_COLON {
		p.nextToken()
		if !p.expect(lexer.IDENT) {
			return ast.NoPat
		}
		qual = name
		name = p.identFromCur()
		span = span.Merge(p.curTok.Span)
	}

	var elems []ast.PatID
	if p.peekTok.Type == lexer.LPAREN {
		p.nextToken()
		for {
			p.nextToken()
			elem := p.parsePattern()
			if !elem.IsValid() {
				return ast.NoPat
			}
			elems = append(elems, elem)

			if p.peekTok.Type != lexer.COMMA {
				break
			}
			p.nextToken()
			if p.peekTok.Type == lexer.RPAREN {
				break
			}
		}
		if !p.expect(lexer.RPAREN) {
			return ast.NoPat
		}
		span = span.Merge(p.curTok.Span)
	}

	if qual.IsValid() || len(elems) > 0 || startsUpper(name.Name) {
		return p.tree.AddPat(ast.Pattern{
			Kind:  ast.PatVariant,
			Span:  span,
			Name:  name,
			Qual:  qual,
			Elems: elems,
		})
	}

	return p.tree.AddPat(ast.Pattern{Kind: ast.PatBinding, Span: span, Name: name})
}

func (p *Parser) parseLiteralPattern() ast.PatID {
	text := p.curTok.Lexeme
	switch p.curTok.Type {
	case lexer.STRING, lexer.CHAR:
		text = p.curTok.Value
	}

	return p.tree.AddPat(ast.Pattern{
		Kind: ast.PatLiteral,
		Span: p.curTok.Span,
		Tok:  p.curTok.Type,
		Text: text,
	})
}

func (p *Parser) parseTuplePattern() ast.PatID {
	start := p.curTok.Span

	var elems []ast.PatID
	for {
		p.nextToken()
		elem := p.parsePattern()
		if !elem.IsValid() {
			return ast.NoPat
		}
		elems = append(elems, elem)

		if p.peekTok.Type != lexer.COMMA {
			break
		}
		p.nextToken()
		if p.peekTok.Type == lexer.RPAREN {
			break
		}
	}

	if !p.expect(lexer.RPAREN) {
		return ast.NoPat
	}

	if len(elems) == 1 {
		// Grouping parens, not a 1-tuple.
		return elems[0]
	}

	return p.tree.AddPat(ast.Pattern{
		Kind:  ast.PatTuple,
		Span:  start.Merge(p.curTok.Span),
		Elems: elems,
	})
}

// startsUpper distinguishes unit variant patterns from bindings. Variant names
// are capitalized by convention; the resolver re-checks against the enum's
// actual variants.
func startsUpper(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
