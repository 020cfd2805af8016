package parser

import (
	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/lexer"
)

func (p *Parser) parseItem() ast.ItemID {
	switch p.curTok.Type {
	case lexer.FN:
		return p.parseFnItem()
	case lexer.STRUCT:
		return p.parseStructItem()
	case lexer.ENUM:
		return p.parseEnumItem()
	case lexer.CONST:
		return p.parseConstItem()
	case lexer.USE:
		return p.parseUseItem()
	default:
		p.reportUnexpected("expected item declaration, found '"+describeToken(p.curTok)+"'", p.curTok.Span)
		return ast.NoItem
	}
}

func (p *Parser) parseFnItem() ast.ItemID {
	start := p.curTok.Span

	if !p.expect(lexer.IDENT) {
		return ast.NoItem
	}
	name := p.identFromCur()

	typeParams, ok := p.parseTypeParams()
	if !ok {
		return ast.NoItem
	}

	if !p.expect(lexer.LPAREN) {
		return ast.NoItem
	}

	var params []ast.Param
	if p.peekTok.Type == lexer.RPAREN {
		p.nextToken()
	} else {
		for {
			if !p.expect(lexer.IDENT) {
				return ast.NoItem
			}
			paramName := p.identFromCur()

			if !p.expect(lexer.COLON) {
				return ast.NoItem
			}
			p.nextToken()

			typ := p.parseType()
			if !typ.IsValid() {
				return ast.NoItem
			}

			params = append(params, ast.Param{
				Name: paramName,
				Type: typ,
				Span: paramName.Span.Merge(p.curTok.Span),
			})

			if p.peekTok.Type == lexer.COMMA {
				p.nextToken()
				if p.peekTok.Type == lexer.RPAREN {
					break
				}
				continue
			}
			break
		}

		if !p.expect(lexer.RPAREN) {
			return ast.NoItem
		}
	}

	result := ast.NoType
	if p.peekTok.Type == lexer.ARROW {
		p.nextToken()
		p.nextToken()
		result = p.parseType()
		if !result.IsValid() {
			return ast.NoItem
		}
	}

	if !p.expect(lexer.LBRACE) {
		return ast.NoItem
	}

	body := p.parseBlockExpr()
	span := start.Merge(p.curTok.Span)
	p.nextToken()

	return p.tree.AddItem(ast.Item{
		Kind:       ast.ItemFn,
		Span:       span,
		Name:       name,
		TypeParams: typeParams,
		Params:     params,
		Result:     result,
		Body:       body,
	})
}

// parseTypeParams parses an optional bracketed type parameter list after an
// item name, e.g. fn id[T](x: T) -> T.
func (p *Parser) parseTypeParams() ([]ast.Ident, bool) {
	if p.peekTok.Type != lexer.LBRACKET {
		return nil, true
	}
	p.nextToken()

	var params []ast.Ident
	for {
		if !p.expect(lexer.IDENT) {
			return nil, false
		}
		params = append(params, p.identFromCur())

		if p.peekTok.Type == lexer.COMMA {
			p.nextToken()
			if p.peekTok.Type == lexer.RBRACKET {
				break
			}
			continue
		}
		break
	}

	if !p.expect(lexer.RBRACKET) {
		return nil, false
	}
	return params, true
}

func (p *Parser) parseStructItem() ast.ItemID {
	start := p.curTok.Span

	if !p.expect(lexer.IDENT) {
		return ast.NoItem
	}
	name := p.identFromCur()

	typeParams, ok := p.parseTypeParams()
	if !ok {
		return ast.NoItem
	}

	if !p.expect(lexer.LBRACE) {
		return ast.NoItem
	}

	var fields []ast.FieldDef
	for p.peekTok.Type != lexer.RBRACE && p.peekTok.Type != lexer.EOF {
		if !p.expect(lexer.IDENT) {
			return ast.NoItem
		}
		fieldName := p.identFromCur()

		if !p.expect(lexer.COLON) {
			return ast.NoItem
		}
		p.nextToken()

		typ := p.parseType()
		if !typ.IsValid() {
			return ast.NoItem
		}

		fields = append(fields, ast.FieldDef{
			Name: fieldName,
			Type: typ,
			Span: fieldName.Span.Merge(p.curTok.Span),
		})

		if p.peekTok.Type == lexer.COMMA {
			p.nextToken()
			continue
		}
		break
	}

	if !p.expect(lexer.RBRACE) {
		return ast.NoItem
	}

	span := start.Merge(p.curTok.Span)
	p.nextToken()

	return p.tree.AddItem(ast.Item{
		Kind:       ast.ItemStruct,
		Span:       span,
		Name:       name,
		TypeParams: typeParams,
		Fields:     fields,
	})
}

func (p *Parser) parseEnumItem() ast.ItemID {
	start := p.curTok.Span

	if !p.expect(lexer.IDENT) {
		return ast.NoItem
	}
	name := p.identFromCur()

	typeParams, ok := p.parseTypeParams()
	if !ok {
		return ast.NoItem
	}

	if !p.expect(lexer.LBRACE) {
		return ast.NoItem
	}

	var variants []ast.VariantDef
	for p.peekTok.Type != lexer.RBRACE && p.peekTok.Type != lexer.EOF {
		if !p.expect(lexer.IDENT) {
			return ast.NoItem
		}
		variant := ast.VariantDef{Name: p.identFromCur(), Span: p.curTok.Span}

		if p.peekTok.Type == lexer.LPAREN {
			p.nextToken()
			for {
				p.nextToken()
				typ := p.parseType()
				if !typ.IsValid() {
					return ast.NoItem
				}
				variant.Payload = append(variant.Payload, typ)

				if p.peekTok.Type == lexer.COMMA {
					p.nextToken()
					if p.peekTok.Type == lexer.RPAREN {
						break
					}
					continue
				}
				break
			}
			if !p.expect(lexer.RPAREN) {
				return ast.NoItem
			}
			variant.Span = variant.Span.Merge(p.curTok.Span)
		}

		variants = append(variants, variant)

		if p.peekTok.Type == lexer.COMMA {
			p.nextToken()
			continue
		}
		break
	}

	if !p.expect(lexer.RBRACE) {
		return ast.NoItem
	}

	span := start.Merge(p.curTok.Span)
	p.nextToken()

	return p.tree.AddItem(ast.Item{
		Kind:       ast.ItemEnum,
		Span:       span,
		Name:       name,
		TypeParams: typeParams,
		Variants:   variants,
	})
}

func (p *Parser) parseConstItem() ast.ItemID {
	start := p.curTok.Span

	if !p.expect(lexer.IDENT) {
		return ast.NoItem
	}
	name := p.identFromCur()

	typ := ast.NoType
	if p.peekTok.Type == lexer.COLON {
		p.nextToken()
		p.nextToken()
		typ = p.parseType()
		if !typ.IsValid() {
			return ast.NoItem
		}
	}

	if !p.expect(lexer.ASSIGN) {
		return ast.NoItem
	}
	p.nextToken()

	value := p.parseExpr()
	if !value.IsValid() {
		return ast.NoItem
	}

	if !p.expect(lexer.SEMICOLON) {
		return ast.NoItem
	}

	span := start.Merge(p.curTok.Span)
	p.nextToken()

	return p.tree.AddItem(ast.Item{
		Kind:  ast.ItemConst,
		Span:  span,
		Name:  name,
		Type:  typ,
		Value: value,
	})
}

func (p *Parser) parseUseItem() ast.ItemID {
	start := p.curTok.Span

	if !p.expect(lexer.IDENT) {
		return ast.NoItem
	}
	path := []ast.Ident{p.identFromCur()}

	for p.peekTok.Type == lexer.DOUBLE_COLON {
		p.nextToken()
		if !p.expect(lexer.IDENT) {
			return ast.NoItem
		}
		path = append(path, p.identFromCur())
	}

	var alias ast.Ident
	if p.peekTok.Type == lexer.AS {
		p.nextToken()
		if !p.expect(lexer.IDENT) {
			return ast.NoItem
		}
		alias = p.identFromCur()
	}

	if !p.expect(lexer.SEMICOLON) {
		return ast.NoItem
	}

	span := start.Merge(p.curTok.Span)
	p.nextToken()

	return p.tree.AddItem(ast.Item{
		Kind:  ast.ItemUse,
		Span:  span,
		Path:  path,
		Name:  path[len(path)-1],
		Alias: alias,
	})
}
