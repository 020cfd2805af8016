package lexer_test

import (
	"testing"

	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
	"github.com/DrTomLLC/T-Programming-Language/internal/lexer"
)

func collect(t *testing.T, l *lexer.Lexer) []lexer.Token {
	t.Helper()
	var tokens []lexer.Token
	for i := 0; i < 10000; i++ {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == lexer.EOF {
			return tokens
		}
	}
	t.Fatal("scanner did not reach EOF")
	return nil
}

func TestNextTokenBasic(t *testing.T) {
	input := `fn add(a: i32, b: i32) -> i32 { a + b }`

	want := []struct {
		typ    lexer.TokenType
		lexeme string
	}{
		{lexer.FN, "fn"},
		{lexer.IDENT, "add"},
		{lexer.LPAREN, "("},
		{lexer.IDENT, "a"},
		{lexer.COLON, ":"},
		{lexer.IDENT, "i32"},
		{lexer.COMMA, ","},
		{lexer.IDENT, "b"},
		{lexer.COLON, ":"},
		{lexer.IDENT, "i32"},
		{lexer.RPAREN, ")"},
		{lexer.ARROW, "->"},
		{lexer.IDENT, "i32"},
		{lexer.LBRACE, "{"},
		{lexer.IDENT, "a"},
		{lexer.PLUS, "+"},
		{lexer.IDENT, "b"},
		{lexer.RBRACE, "}"},
		{lexer.EOF, ""},
	}

	l := lexer.New(input)
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w.typ {
			t.Fatalf("token %d: expected type %q, got %q (%q)", i, w.typ, tok.Type, tok.Lexeme)
		}
		if tok.Lexeme != w.lexeme {
			t.Fatalf("token %d: expected lexeme %q, got %q", i, w.lexeme, tok.Lexeme)
		}
	}
	if len(l.Errors) != 0 {
		t.Fatalf("unexpected scan errors: %+v", l.Errors)
	}
}

func TestMultiRuneOperators(t *testing.T) {
	input := `== != <= >= && || -> => .. :: %`
	types := []lexer.TokenType{
		lexer.EQ, lexer.NOT_EQ, lexer.LE, lexer.GE, lexer.AND, lexer.OR,
		lexer.ARROW, lexer.FATARROW, lexer.DOTDOT, lexer.DOUBLE_COLON,
		lexer.PERCENT, lexer.EOF,
	}

	l := lexer.New(input)
	for i, want := range types {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token %d: expected %q, got %q", i, want, tok.Type)
		}
	}
}

func TestNumericLiterals(t *testing.T) {
	tests := []struct {
		input string
		typ   lexer.TokenType
	}{
		{"42", lexer.INT},
		{"1_000_000", lexer.INT},
		{"0xFF", lexer.INT},
		{"0b1010", lexer.INT},
		{"3.14", lexer.FLOAT},
		{"1e9", lexer.FLOAT},
		{"2.5e-3", lexer.FLOAT},
	}

	for _, tt := range tests {
		l := lexer.New(tt.input)
		tok := l.NextToken()
		if tok.Type != tt.typ {
			t.Errorf("%q: expected %q, got %q", tt.input, tt.typ, tok.Type)
		}
		if tok.Lexeme != tt.input {
			t.Errorf("%q: expected full lexeme, got %q", tt.input, tok.Lexeme)
		}
	}
}

func TestRangeDoesNotScanAsFloat(t *testing.T) {
	l := lexer.New("1..10")
	types := []lexer.TokenType{lexer.INT, lexer.DOTDOT, lexer.INT, lexer.EOF}
	for i, want := range types {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token %d: expected %q, got %q", i, want, tok.Type)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	l := lexer.New(`"a\nb\"c"`)
	tok := l.NextToken()
	if tok.Type != lexer.STRING {
		t.Fatalf("expected STRING, got %q", tok.Type)
	}
	if tok.Value != "a\nb\"c" {
		t.Fatalf("expected decoded value %q, got %q", "a\nb\"c", tok.Value)
	}
	if tok.Lexeme != `"a\nb\"c"` {
		t.Fatalf("expected raw lexeme preserved, got %q", tok.Lexeme)
	}
}

func TestCharLiteral(t *testing.T) {
	l := lexer.New(`'x' '\n'`)
	tok := l.NextToken()
	if tok.Type != lexer.CHAR || tok.Value != "x" {
		t.Fatalf("expected char 'x', got %q %q", tok.Type, tok.Value)
	}
	tok = l.NextToken()
	if tok.Type != lexer.CHAR || tok.Value != "\n" {
		t.Fatalf("expected char newline, got %q %q", tok.Type, tok.Value)
	}
}

func TestUnterminatedStringRecoversAtEndOfLine(t *testing.T) {
	// The broken literal produces exactly one diagnostic and scanning of
	// the next line proceeds unaffected.
	input := "let s = \"abc\nfn f() {}"
	tokens, diags := lexer.Scan(input, "main.t")

	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %d: %+v", len(diags), diags)
	}
	if diags[0].Code != diag.CodeLexUnterminatedLiteral {
		t.Fatalf("expected code %q, got %q", diag.CodeLexUnterminatedLiteral, diags[0].Code)
	}
	if diags[0].Span.Line != 1 {
		t.Fatalf("expected diagnostic on line 1, got %d", diags[0].Span.Line)
	}
	// The synthesized literal ends at the newline, not at EOF.
	if diags[0].Span.End > len("let s = \"abc") {
		t.Fatalf("diagnostic span extends past end of line: %+v", diags[0].Span)
	}

	var sawFn bool
	for _, tok := range tokens {
		if tok.Type == lexer.FN {
			sawFn = true
			if tok.Span.Line != 2 {
				t.Fatalf("expected fn on line 2, got line %d", tok.Span.Line)
			}
		}
	}
	if !sawFn {
		t.Fatal("scanning did not continue past the unterminated string")
	}
}

func TestInvalidCharacterSkipsOneRuneAndResumes(t *testing.T) {
	tokens, diags := lexer.Scan("let @ x = 1;", "main.t")

	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	if diags[0].Code != diag.CodeLexInvalidCharacter {
		t.Fatalf("expected code %q, got %q", diag.CodeLexInvalidCharacter, diags[0].Code)
	}

	types := make([]lexer.TokenType, 0, len(tokens))
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	want := []lexer.TokenType{lexer.LET, lexer.IDENT, lexer.ASSIGN, lexer.INT, lexer.SEMICOLON, lexer.EOF}
	if len(types) != len(want) {
		t.Fatalf("expected %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("token %d: expected %q, got %q", i, want[i], types[i])
		}
	}
}

func TestNumberPrefixWithoutDigits(t *testing.T) {
	// A bare base prefix is still consumed as one INT token, but it must not
	// scan cleanly.
	for _, input := range []string{"0x", "0b", "0X_", "0b__"} {
		tokens, diags := lexer.Scan(input, "main.t")

		if len(diags) != 1 {
			t.Fatalf("%q: expected 1 diagnostic, got %d: %+v", input, len(diags), diags)
		}
		if diags[0].Code != diag.CodeLexInvalidCharacter {
			t.Fatalf("%q: expected code %q, got %q", input, diag.CodeLexInvalidCharacter, diags[0].Code)
		}
		if len(tokens) != 2 || tokens[0].Type != lexer.INT || tokens[0].Lexeme != input {
			t.Fatalf("%q: expected a single INT token, got %+v", input, tokens)
		}
	}

	if _, diags := lexer.Scan("0x1F 0b1010", "main.t"); len(diags) != 0 {
		t.Fatalf("well-formed prefixed literals produced diagnostics: %+v", diags)
	}
}

func TestUnterminatedBlockCommentRecoversAtEOF(t *testing.T) {
	tokens, diags := lexer.Scan("fn f() {}\n/* never closed", "main.t")

	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d: %+v", len(diags), diags)
	}
	if diags[0].Code != diag.CodeLexUnterminatedLiteral {
		t.Fatalf("expected code %q, got %q", diag.CodeLexUnterminatedLiteral, diags[0].Code)
	}
	if tokens[len(tokens)-1].Type != lexer.EOF {
		t.Fatal("token stream does not end with EOF")
	}
}

func TestNestedBlockComments(t *testing.T) {
	l := lexer.New("/* outer /* inner */ still outer */ fn")
	tok := l.NextToken()
	if tok.Type != lexer.FN {
		t.Fatalf("expected FN after nested comment, got %q", tok.Type)
	}
	if len(l.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", l.Errors)
	}
}

func TestSpanTracking(t *testing.T) {
	l := lexer.New("let x\nlet y")
	l.SetFilename("main.t")

	tokens := collect(t, l)
	// let(1:1) x(1:5) let(2:1) y(2:5)
	wantPos := []struct{ line, col int }{
		{1, 1}, {1, 5}, {2, 1}, {2, 5},
	}
	for i, w := range wantPos {
		if tokens[i].Span.Line != w.line || tokens[i].Span.Column != w.col {
			t.Fatalf("token %d (%q): expected %d:%d, got %d:%d",
				i, tokens[i].Lexeme, w.line, w.col, tokens[i].Span.Line, tokens[i].Span.Column)
		}
		if tokens[i].Span.Filename != "main.t" {
			t.Fatalf("token %d: missing filename on span", i)
		}
	}

	// Half-open byte ranges.
	if tokens[0].Span.Start != 0 || tokens[0].Span.End != 3 {
		t.Fatalf("expected let span [0,3), got [%d,%d)", tokens[0].Span.Start, tokens[0].Span.End)
	}
}

func TestTriviaMode(t *testing.T) {
	l := lexer.NewWithTrivia("x // note\ny")

	var types []lexer.TokenType
	for {
		tok := l.NextToken()
		types = append(types, tok.Type)
		if tok.Type == lexer.EOF {
			break
		}
	}
	want := []lexer.TokenType{
		lexer.IDENT, lexer.WHITESPACE, lexer.LINE_COMMENT, lexer.NEWLINE, lexer.IDENT, lexer.EOF,
	}
	if len(types) != len(want) {
		t.Fatalf("expected %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("token %d: expected %q, got %q", i, want[i], types[i])
		}
	}
}

func TestLookupIdent(t *testing.T) {
	if lexer.LookupIdent("match") != lexer.MATCH {
		t.Fatal("expected match to be a keyword")
	}
	if lexer.LookupIdent("matches") != lexer.IDENT {
		t.Fatal("expected matches to be an identifier")
	}
}
