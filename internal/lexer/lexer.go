package lexer

import (
	"strconv"
	"unicode"

	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
)

type ErrorKind int

const (
	ErrInvalidCharacter ErrorKind = iota
	ErrUnterminatedLiteral
)

// Error captures a recoverable scanning error with location context.
type Error struct {
	Kind    ErrorKind
	Message string
	Span    diag.Span
}

func (k ErrorKind) diagnosticCode() diag.Code {
	switch k {
	case ErrUnterminatedLiteral:
		return diag.CodeLexUnterminatedLiteral
	default:
		return diag.CodeLexInvalidCharacter
	}
}

// ToDiagnostic converts a scanner error into a shared diagnostic structure.
func (e Error) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageScan,
		Severity: diag.SeverityError,
		Code:     e.Kind.diagnosticCode(),
		Message:  e.Message,
		Span:     e.Span,
	}
}

// Lexer represents the scanner state.
type Lexer struct {
	input      []rune
	pos        int  // index of the current rune
	ch         rune // current rune (0 = EOF)
	line       int  // current line number (1-based)
	column     int  // current column number (1-based)
	filename   string
	emitTrivia bool // whether to emit trivia tokens (comments, whitespace)

	Errors []Error
}

// newLexer is the single internal constructor that sets up all scanner state.
func newLexer(input string, emitTrivia bool) *Lexer {
	l := &Lexer{
		input:      []rune(input),
		pos:        -1, // start before first rune
		line:       1,
		column:     0, // becomes 1 after the first read
		emitTrivia: emitTrivia,
	}
	l.read()
	return l
}

// New creates a scanner for the given input (trivia mode disabled).
func New(input string) *Lexer {
	return newLexer(input, false)
}

// NewWithTrivia creates a scanner that also emits comment and whitespace
// tokens, for tooling that needs to reproduce source layout.
func NewWithTrivia(input string) *Lexer {
	return newLexer(input, true)
}

// SetFilename attributes all emitted spans to the provided filename.
func (l *Lexer) SetFilename(name string) {
	l.filename = name
}

// Scan tokenizes an entire source text. The returned stream always ends with
// an EOF token; scanning never aborts, errors are accumulated as diagnostics.
func Scan(input, filename string) ([]Token, []diag.Diagnostic) {
	l := New(input)
	l.SetFilename(filename)

	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			break
		}
	}

	var diags []diag.Diagnostic
	for _, err := range l.Errors {
		diags = append(diags, err.ToDiagnostic())
	}
	return tokens, diags
}

func (l *Lexer) addError(kind ErrorKind, msg string, span diag.Span) {
	l.Errors = append(l.Errors, Error{Kind: kind, Message: msg, Span: span})
}

// read advances the scanner to the next rune, maintaining line/column so they
// always reflect the rune at pos.
func (l *Lexer) read() {
	l.pos++
	prevPos := l.pos - 1

	onNewline := prevPos >= 0 && prevPos < len(l.input) && l.input[prevPos] == '\n'
	if onNewline {
		l.line++
		l.column = 1
	} else {
		l.column++
	}

	if l.pos >= len(l.input) {
		l.ch = 0 // EOF
		return
	}
	l.ch = l.input[l.pos]
}

// peek returns the next rune without advancing.
func (l *Lexer) peek() rune {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

func (l *Lexer) spanFrom(startLine, startColumn, startPos int) diag.Span {
	return diag.Span{
		Filename: l.filename,
		Line:     startLine,
		Column:   startColumn,
		Start:    startPos,
		End:      l.pos,
	}
}

func (l *Lexer) makeToken(tokType TokenType, startLine, startColumn, startPos int, lexeme, value string) Token {
	return Token{
		Type:   tokType,
		Lexeme: lexeme,
		Value:  value,
		Span:   l.spanFrom(startLine, startColumn, startPos),
	}
}

// opToken consumes n runes starting at the current one and emits a token of
// the given type whose lexeme is exactly those runes.
func (l *Lexer) opToken(tokType TokenType, n int) Token {
	startLine, startColumn, startPos := l.line, l.column, l.pos
	for i := 0; i < n; i++ {
		l.read()
	}
	lexeme := string(l.input[startPos:l.pos])
	return l.makeToken(tokType, startLine, startColumn, startPos, lexeme, lexeme)
}

// skipWhitespace skips whitespace, optionally returning a trivia token.
func (l *Lexer) skipWhitespace() *Token {
	if !l.emitTrivia {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.read()
		}
		return nil
	}

	startLine, startColumn, startPos := l.line, l.column, l.pos

	if l.ch == '\n' || l.ch == '\r' {
		raw := string(l.ch)
		l.read()
		if l.ch == '\n' && raw == "\r" {
			raw = "\r\n"
			l.read()
		}
		tok := l.makeToken(NEWLINE, startLine, startColumn, startPos, raw, raw)
		return &tok
	}

	if l.ch == ' ' || l.ch == '\t' {
		for l.ch == ' ' || l.ch == '\t' {
			l.read()
		}
		raw := string(l.input[startPos:l.pos])
		tok := l.makeToken(WHITESPACE, startLine, startColumn, startPos, raw, raw)
		return &tok
	}

	return nil
}

// skipLineComment consumes a line comment whose "//" is already consumed.
func (l *Lexer) skipLineComment(startLine, startColumn, startPos int) *Token {
	for l.ch != '\n' && l.ch != '\r' && l.ch != 0 {
		l.read()
	}
	if !l.emitTrivia {
		return nil
	}
	raw := string(l.input[startPos:l.pos])
	tok := l.makeToken(LINE_COMMENT, startLine, startColumn, startPos, raw, raw)
	return &tok
}

// skipBlockComment consumes a (nestable) block comment whose "/*" is already
// consumed. An unterminated comment is closed at end-of-file.
func (l *Lexer) skipBlockComment(startLine, startColumn, startPos int) *Token {
	depth := 1
	for depth > 0 {
		if l.ch == 0 {
			l.addError(
				ErrUnterminatedLiteral,
				"unterminated block comment",
				l.spanFrom(startLine, startColumn, startPos),
			)
			break
		}
		if l.ch == '/' && l.peek() == '*' {
			l.read()
			l.read()
			depth++
		} else if l.ch == '*' && l.peek() == '/' {
			l.read()
			l.read()
			depth--
		} else {
			l.read()
		}
	}

	if !l.emitTrivia {
		return nil
	}
	raw := string(l.input[startPos:l.pos])
	tok := l.makeToken(BLOCK_COMMENT, startLine, startColumn, startPos, raw, raw)
	return &tok
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.read()
	}
	return string(l.input[start:l.pos])
}

// readNumber reads a numeric literal (decimal, hex 0x..., binary 0b..., float
// with optional exponent). Underscores are permitted as digit separators.
func (l *Lexer) readNumber() (string, TokenType) {
	start := l.pos
	startLine, startColumn := l.line, l.column
	l.read() // first digit

	if l.input[start] == '0' && (l.ch == 'x' || l.ch == 'X' || l.ch == 'b' || l.ch == 'B') {
		base16 := l.ch == 'x' || l.ch == 'X'
		l.read()
		digits := 0
		for l.ch == '_' || (base16 && isHexDigit(l.ch)) || (!base16 && (l.ch == '0' || l.ch == '1')) {
			if l.ch != '_' {
				digits++
			}
			l.read()
		}
		if digits == 0 {
			l.addError(
				ErrInvalidCharacter,
				"numeric literal "+strconv.Quote(string(l.input[start:l.pos]))+" has no digits",
				l.spanFrom(startLine, startColumn, start),
			)
		}
		return string(l.input[start:l.pos]), INT
	}

	isFloat := false
	for isDigit(l.ch) || l.ch == '_' {
		l.read()
	}

	// A decimal point only continues the number when followed by a digit, so
	// that range expressions like 1..10 scan as INT DOTDOT INT.
	if l.ch == '.' && isDigit(l.peek()) {
		isFloat = true
		l.read()
		for isDigit(l.ch) || l.ch == '_' {
			l.read()
		}
	}

	if l.ch == 'e' || l.ch == 'E' {
		isFloat = true
		l.read()
		if l.ch == '+' || l.ch == '-' {
			l.read()
		}
		for isDigit(l.ch) || l.ch == '_' {
			l.read()
		}
	}

	if isFloat {
		return string(l.input[start:l.pos]), FLOAT
	}
	return string(l.input[start:l.pos]), INT
}

// readString reads a string or char literal, handling escape sequences. On a
// newline or EOF before the closing quote an end-of-literal is synthesized:
// the error is recorded and the runes read so far form the token value.
func (l *Lexer) readString(startLine, startColumn, startPos int, quote rune) (lexeme, value string) {
	var decoded []rune
	l.read() // skip opening quote

	for {
		if l.ch == 0 || l.ch == '\n' || l.ch == '\r' {
			what := "string"
			if quote == '\'' {
				what = "char"
			}
			l.addError(
				ErrUnterminatedLiteral,
				"unterminated "+what+" literal",
				l.spanFrom(startLine, startColumn, startPos),
			)
			break
		}
		if l.ch == quote {
			l.read() // consume closing quote
			break
		}
		if l.ch == '\\' {
			l.read()
			switch l.ch {
			case 'n':
				decoded = append(decoded, '\n')
			case 't':
				decoded = append(decoded, '\t')
			case 'r':
				decoded = append(decoded, '\r')
			case '\\':
				decoded = append(decoded, '\\')
			case '"':
				decoded = append(decoded, '"')
			case '\'':
				decoded = append(decoded, '\'')
			case '0':
				decoded = append(decoded, 0)
			case 0:
				continue
			default:
				decoded = append(decoded, '\\', l.ch)
			}
			l.read()
			continue
		}
		decoded = append(decoded, l.ch)
		l.read()
	}

	return string(l.input[startPos:l.pos]), string(decoded)
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	for {
		if triviaTok := l.skipWhitespace(); triviaTok != nil {
			return *triviaTok
		}

		switch l.ch {
		case 0:
			startLine, startColumn, startPos := l.line, l.column, l.pos
			if startColumn == 0 {
				startColumn = 1
			}
			return l.makeToken(EOF, startLine, startColumn, startPos, "", "")

		case '=':
			switch l.peek() {
			case '=':
				return l.opToken(EQ, 2)
			case '>':
				return l.opToken(FATARROW, 2)
			default:
				return l.opToken(ASSIGN, 1)
			}

		case '+':
			return l.opToken(PLUS, 1)

		case '-':
			if l.peek() == '>' {
				return l.opToken(ARROW, 2)
			}
			return l.opToken(MINUS, 1)

		case '*':
			return l.opToken(ASTERISK, 1)

		case '%':
			return l.opToken(PERCENT, 1)

		case '!':
			if l.peek() == '=' {
				return l.opToken(NOT_EQ, 2)
			}
			return l.opToken(BANG, 1)

		case '&':
			if l.peek() == '&' {
				return l.opToken(AND, 2)
			}
			l.invalidCharacter()
			continue

		case '|':
			if l.peek() == '|' {
				return l.opToken(OR, 2)
			}
			l.invalidCharacter()
			continue

		case '/':
			startLine, startColumn, startPos := l.line, l.column, l.pos
			switch l.peek() {
			case '/':
				l.read()
				l.read()
				if triviaTok := l.skipLineComment(startLine, startColumn, startPos); triviaTok != nil {
					return *triviaTok
				}
				continue
			case '*':
				l.read()
				l.read()
				if triviaTok := l.skipBlockComment(startLine, startColumn, startPos); triviaTok != nil {
					return *triviaTok
				}
				continue
			default:
				return l.opToken(SLASH, 1)
			}

		case '<':
			if l.peek() == '=' {
				return l.opToken(LE, 2)
			}
			return l.opToken(LT, 1)

		case '>':
			if l.peek() == '=' {
				return l.opToken(GE, 2)
			}
			return l.opToken(GT, 1)

		case ';':
			return l.opToken(SEMICOLON, 1)

		case ',':
			return l.opToken(COMMA, 1)

		case ':':
			if l.peek() == ':' {
				return l.opToken(DOUBLE_COLON, 2)
			}
			return l.opToken(COLON, 1)

		case '.':
			if l.peek() == '.' {
				return l.opToken(DOTDOT, 2)
			}
			return l.opToken(DOT, 1)

		case '"':
			startLine, startColumn, startPos := l.line, l.column, l.pos
			lexeme, value := l.readString(startLine, startColumn, startPos, '"')
			return l.makeToken(STRING, startLine, startColumn, startPos, lexeme, value)

		case '\'':
			startLine, startColumn, startPos := l.line, l.column, l.pos
			lexeme, value := l.readString(startLine, startColumn, startPos, '\'')
			return l.makeToken(CHAR, startLine, startColumn, startPos, lexeme, value)

		case '(':
			return l.opToken(LPAREN, 1)
		case ')':
			return l.opToken(RPAREN, 1)
		case '{':
			return l.opToken(LBRACE, 1)
		case '}':
			return l.opToken(RBRACE, 1)
		case '[':
			return l.opToken(LBRACKET, 1)
		case ']':
			return l.opToken(RBRACKET, 1)

		default:
			if isLetter(l.ch) {
				startLine, startColumn, startPos := l.line, l.column, l.pos
				literal := l.readIdentifier()
				tokType := LookupIdent(literal)
				return l.makeToken(tokType, startLine, startColumn, startPos, literal, literal)
			}
			if isDigit(l.ch) {
				startLine, startColumn, startPos := l.line, l.column, l.pos
				literal, tokType := l.readNumber()
				return l.makeToken(tokType, startLine, startColumn, startPos, literal, literal)
			}
			l.invalidCharacter()
			continue
		}
	}
}

// invalidCharacter records an InvalidCharacter error, skips exactly one rune,
// and lets the scan loop resume at the following character.
func (l *Lexer) invalidCharacter() {
	startLine, startColumn, startPos := l.line, l.column, l.pos
	raw := string(l.ch)
	l.read()
	l.addError(
		ErrInvalidCharacter,
		"invalid character "+strconv.Quote(raw),
		l.spanFrom(startLine, startColumn, startPos),
	)
}

func isLetter(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isDigit(ch rune) bool {
	// Numeric literals are restricted to ASCII digits.
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') ||
		(ch >= 'a' && ch <= 'f') ||
		(ch >= 'A' && ch <= 'F')
}
