package parser

import (
	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
	"github.com/DrTomLLC/T-Programming-Language/internal/lexer"
)

type (
	prefixParseFn func() ast.ExprID
	infixParseFn  func(ast.ExprID) ast.ExprID
)

const (
	precedenceLowest = iota
	precedenceAssign
	precedenceOr
	precedenceAnd
	precedenceEquality
	precedenceComparison
	precedenceSum
	precedenceProduct
	precedencePrefix
	precedencePostfix
)

var precedences = map[lexer.TokenType]int{
	lexer.ASSIGN:   precedenceAssign,
	lexer.OR:       precedenceOr,
	lexer.AND:      precedenceAnd,
	lexer.EQ:       precedenceEquality,
	lexer.NOT_EQ:   precedenceEquality,
	lexer.LT:       precedenceComparison,
	lexer.LE:       precedenceComparison,
	lexer.GT:       precedenceComparison,
	lexer.GE:       precedenceComparison,
	lexer.PLUS:     precedenceSum,
	lexer.MINUS:    precedenceSum,
	lexer.ASTERISK: precedenceProduct,
	lexer.SLASH:    precedenceProduct,
	lexer.PERCENT:  precedenceProduct,
	lexer.LPAREN:   precedencePostfix,
	lexer.LBRACKET: precedencePostfix,
	lexer.DOT:      precedencePostfix,
}

// Parser implements a Pratt-style recursive descent parser over a token slice.
// Invariants:
//   - Lookahead: curTok always reflects the token currently under examination;
//     peekTok mirrors the next token from the slice. The pair forms the
//     parser's sole lookahead window and is only mutated via nextToken.
//   - Diagnostics: errors is an append-only accumulator of recoverable
//     diagnostics in source order. Recovery never rewinds, so a broken
//     construct reports once and parsing resumes at the next sync point.
//   - Nodes live in the arena owned by tree; a zero ID signals a construct
//     that recovery discarded.
type Parser struct {
	tokens  []lexer.Token
	pos     int
	curTok  lexer.Token
	peekTok lexer.Token

	tree   *ast.Tree
	errors []diag.Diagnostic

	prefixFns map[lexer.TokenType]prefixParseFn
	infixFns  map[lexer.TokenType]infixParseFn

	// noStructLit suppresses the IDENT '{' struct literal production while
	// parsing if/while/match head expressions, where '{' opens the body.
	noStructLit bool
}

// New returns a parser over an EOF-terminated token slice, as produced by
// lexer.Scan. Spans on the tokens are taken as-is.
func New(tokens []lexer.Token, filename string) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.EOF {
		tokens = append(tokens, lexer.Token{Type: lexer.EOF})
	}

	p := &Parser{
		tokens:    tokens,
		tree:      ast.NewTree(filename),
		prefixFns: make(map[lexer.TokenType]prefixParseFn),
		infixFns:  make(map[lexer.TokenType]infixParseFn),
	}

	p.registerPrefix(lexer.IDENT, p.parseIdentExpr)
	p.registerPrefix(lexer.INT, p.parseIntegerLiteral)
	p.registerPrefix(lexer.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.CHAR, p.parseCharLiteral)
	p.registerPrefix(lexer.TRUE, p.parseBoolLiteral)
	p.registerPrefix(lexer.FALSE, p.parseBoolLiteral)
	p.registerPrefix(lexer.MINUS, p.parsePrefixExpr)
	p.registerPrefix(lexer.BANG, p.parsePrefixExpr)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedExpr)
	p.registerPrefix(lexer.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(lexer.IF, p.parseIfExpr)
	p.registerPrefix(lexer.MATCH, p.parseMatchExpr)
	p.registerPrefix(lexer.LBRACE, p.parseBlockLiteral)

	p.registerInfix(lexer.ASSIGN, p.parseAssignExpr)
	p.registerInfix(lexer.PLUS, p.parseInfixExpr)
	p.registerInfix(lexer.MINUS, p.parseInfixExpr)
	p.registerInfix(lexer.ASTERISK, p.parseInfixExpr)
	p.registerInfix(lexer.SLASH, p.parseInfixExpr)
	p.registerInfix(lexer.PERCENT, p.parseInfixExpr)
	p.registerInfix(lexer.AND, p.parseInfixExpr)
	p.registerInfix(lexer.OR, p.parseInfixExpr)
	p.registerInfix(lexer.EQ, p.parseInfixExpr)
	p.registerInfix(lexer.NOT_EQ, p.parseInfixExpr)
	p.registerInfix(lexer.LT, p.parseInfixExpr)
	p.registerInfix(lexer.LE, p.parseInfixExpr)
	p.registerInfix(lexer.GT, p.parseInfixExpr)
	p.registerInfix(lexer.GE, p.parseInfixExpr)
	p.registerInfix(lexer.LPAREN, p.parseCallExpr)
	p.registerInfix(lexer.LBRACKET, p.parseIndexExpr)
	p.registerInfix(lexer.DOT, p.parseFieldExpr)

	// Seed curTok/peekTok.
	p.nextToken()
	p.nextToken()

	return p
}

// Parse consumes the token slice and returns the syntax tree together with
// every recoverable diagnostic, in source order. The tree is always non-nil;
// on errors it holds whatever recovery could salvage.
func Parse(tokens []lexer.Token, filename string) (*ast.Tree, []diag.Diagnostic) {
	p := New(tokens, filename)
	tree := p.ParseFile()
	return tree, p.Errors()
}

// ParseSource scans and parses in one step. Scanner diagnostics precede
// parser diagnostics in the combined list.
func ParseSource(input, filename string) (*ast.Tree, []diag.Diagnostic) {
	tokens, scanDiags := lexer.Scan(input, filename)
	tree, parseDiags := Parse(tokens, filename)
	return tree, append(scanDiags, parseDiags...)
}

// Errors returns all recoverable parse errors that were encountered.
func (p *Parser) Errors() []diag.Diagnostic {
	return p.errors
}

// ParseFile parses a full compilation unit.
func (p *Parser) ParseFile() *ast.Tree {
	p.tree.Span = p.curTok.Span

	for p.curTok.Type != lexer.EOF {
		prevTok := p.curTok
		item := p.parseItem()
		if item.IsValid() {
			p.tree.Items = append(p.tree.Items, item)
			p.tree.Span = p.tree.Span.Merge(p.tree.Item(item).Span)
			continue
		}

		if p.curTok.Type == lexer.EOF {
			break
		}

		p.recoverItem(prevTok)
	}

	p.tree.Span = p.tree.Span.Merge(p.curTok.Span)

	return p.tree
}

// nextToken advances the parser's token window.
// Contract: after calling nextToken, curTok == old(peekTok). The slice is only
// consumed from this hop to keep lookahead bookkeeping centralized. Once the
// cursor reaches the trailing EOF token it stays there.
func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	if p.pos < len(p.tokens) {
		p.peekTok = p.tokens[p.pos]
		p.pos++
	} else {
		p.peekTok = p.tokens[len(p.tokens)-1]
	}
}

// expect asserts that the peek token matches the provided type and promotes it
// into curTok. The caller is responsible for inspecting curTok before invoking
// expect, because expect never rewinds.
func (p *Parser) expect(tt lexer.TokenType) bool {
	if p.peekTok.Type == tt {
		p.nextToken()
		return true
	}

	p.reportMissing("expected '"+string(tt)+"', found '"+describeToken(p.peekTok)+"'", p.peekTok.Span)
	return false
}

// reportUnexpected records an unexpected-token diagnostic without aborting
// parsing. Call sites supply the best-effort span available at the failure
// site.
func (p *Parser) reportUnexpected(msg string, span diag.Span) {
	p.errors = append(p.errors, diag.Errorf(diag.StageParse, diag.CodeParseUnexpectedToken, span, "%s", msg))
}

func (p *Parser) reportMissing(msg string, span diag.Span) {
	p.errors = append(p.errors, diag.Errorf(diag.StageParse, diag.CodeParseMissingToken, span, "%s", msg))
}

func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixFns[tokenType] = fn
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekTok.Type]; ok {
		return prec
	}
	return precedenceLowest
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curTok.Type]; ok {
		return prec
	}
	return precedenceLowest
}

// describeToken renders a token for diagnostics; keyword and operator token
// types already read as their lexeme.
func describeToken(tok lexer.Token) string {
	switch tok.Type {
	case lexer.EOF:
		return "end of file"
	case lexer.IDENT, lexer.INT, lexer.FLOAT, lexer.STRING, lexer.CHAR:
		return tok.Lexeme
	default:
		return string(tok.Type)
	}
}

func (p *Parser) identFromCur() ast.Ident {
	return ast.Ident{Name: p.curTok.Lexeme, Span: p.curTok.Span}
}

func sameTokenPosition(a, b lexer.Token) bool {
	return a.Type == b.Type && a.Span.Start == b.Span.Start && a.Span.End == b.Span.End
}

func isStatementStart(tt lexer.TokenType) bool {
	switch tt {
	case lexer.LET, lexer.RETURN, lexer.IF, lexer.WHILE, lexer.FOR,
		lexer.MATCH, lexer.BREAK, lexer.CONTINUE:
		return true
	default:
		return false
	}
}

// recoverItem skips tokens until a plausible item boundary. The
// sameTokenPosition guard forces at least one token of progress so a stuck
// production cannot loop.
func (p *Parser) recoverItem(prev lexer.Token) {
	if p.curTok.Type == lexer.EOF {
		return
	}

	if sameTokenPosition(p.curTok, prev) {
		p.nextToken()
	}

	for p.curTok.Type != lexer.EOF {
		switch p.curTok.Type {
		case lexer.SEMICOLON, lexer.RBRACE:
			p.nextToken()
			return
		default:
			if lexer.IsItemStart(p.curTok.Type) {
				return
			}
		}

		p.nextToken()
	}
}

// recoverStatement skips tokens until a statement boundary inside a block.
func (p *Parser) recoverStatement(prev lexer.Token) {
	if p.curTok.Type == lexer.EOF {
		return
	}

	if sameTokenPosition(p.curTok, prev) {
		p.nextToken()
	}

	for p.curTok.Type != lexer.EOF {
		switch p.curTok.Type {
		case lexer.SEMICOLON:
			p.nextToken()
			return
		case lexer.RBRACE:
			return
		default:
			if lexer.IsItemStart(p.curTok.Type) || isStatementStart(p.curTok.Type) {
				return
			}
		}

		p.nextToken()
	}
}
