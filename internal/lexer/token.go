package lexer

import "github.com/DrTomLLC/T-Programming-Language/internal/diag"

// TokenType represents the type of a token.
type TokenType string

// Token represents a lexical token.
type Token struct {
	Type   TokenType
	Lexeme string    // exact runes from source
	Value  string    // decoded value (escapes processed for strings/chars)
	Span   diag.Span // source location information
}

// Token type constants
const (
	// Special tokens
	EOF TokenType = "EOF"

	// Identifiers and literals
	IDENT  TokenType = "IDENT"  // add, main, x, ...
	INT    TokenType = "INT"    // 42, 0xff, 0b1010
	FLOAT  TokenType = "FLOAT"  // 3.14, 1e9
	STRING TokenType = "STRING" // "hello"
	CHAR   TokenType = "CHAR"   // 'a'

	// Operators
	ASSIGN   TokenType = "="
	PLUS     TokenType = "+"
	MINUS    TokenType = "-"
	ASTERISK TokenType = "*"
	SLASH    TokenType = "/"
	PERCENT  TokenType = "%"
	BANG     TokenType = "!"
	AND      TokenType = "&&"
	OR       TokenType = "||"

	EQ     TokenType = "=="
	NOT_EQ TokenType = "!="
	LT     TokenType = "<"
	LE     TokenType = "<="
	GT     TokenType = ">"
	GE     TokenType = ">="

	ARROW    TokenType = "->"
	FATARROW TokenType = "=>"
	DOTDOT   TokenType = ".."

	// Delimiters
	COMMA        TokenType = ","
	SEMICOLON    TokenType = ";"
	COLON        TokenType = ":"
	DOUBLE_COLON TokenType = "::"
	DOT          TokenType = "."

	LPAREN   TokenType = "("
	RPAREN   TokenType = ")"
	LBRACE   TokenType = "{"
	RBRACE   TokenType = "}"
	LBRACKET TokenType = "["
	RBRACKET TokenType = "]"

	// Keywords
	FN       TokenType = "FN"
	LET      TokenType = "LET"
	MUT      TokenType = "MUT"
	CONST    TokenType = "CONST"
	STRUCT   TokenType = "STRUCT"
	ENUM     TokenType = "ENUM"
	USE      TokenType = "USE"
	AS       TokenType = "AS"
	IF       TokenType = "IF"
	ELSE     TokenType = "ELSE"
	MATCH    TokenType = "MATCH"
	WHILE    TokenType = "WHILE"
	FOR      TokenType = "FOR"
	IN       TokenType = "IN"
	BREAK    TokenType = "BREAK"
	CONTINUE TokenType = "CONTINUE"
	RETURN   TokenType = "RETURN"
	TRUE     TokenType = "TRUE"
	FALSE    TokenType = "FALSE"

	// Trivia tokens (only emitted in trivia mode)
	LINE_COMMENT  TokenType = "LINE_COMMENT"
	BLOCK_COMMENT TokenType = "BLOCK_COMMENT"
	WHITESPACE    TokenType = "WHITESPACE"
	NEWLINE       TokenType = "NEWLINE"
)

var keywords = map[string]TokenType{
	"fn":       FN,
	"let":      LET,
	"mut":      MUT,
	"const":    CONST,
	"struct":   STRUCT,
	"enum":     ENUM,
	"use":      USE,
	"as":       AS,
	"if":       IF,
	"else":     ELSE,
	"match":    MATCH,
	"while":    WHILE,
	"for":      FOR,
	"in":       IN,
	"break":    BREAK,
	"continue": CONTINUE,
	"return":   RETURN,
	"true":     TRUE,
	"false":    FALSE,
}

// LookupIdent checks if the identifier is a keyword.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsItemStart reports whether the token type begins a top-level item.
func IsItemStart(tt TokenType) bool {
	switch tt {
	case FN, STRUCT, ENUM, CONST, USE:
		return true
	default:
		return false
	}
}
