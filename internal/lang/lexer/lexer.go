// Package lexer tokenizes ML source. The lexer is hand-written and
// whitespace-insensitive apart from line/column tracking; `true`, `false` and
// `null` are keyword tokens, never identifiers.
package lexer

import (
	"fmt"
	"strings"

	"github.com/mlang-dev/mlc/internal/lang/ast"
)

// Kind identifies a token class.
type Kind int

const (
	EOF Kind = iota
	IDENT
	INT
	FLOAT
	STRING
	BOOL
	NULL

	// Keywords
	LET
	FN
	IF
	ELIF
	ELSE
	WHILE
	TRY
	EXCEPT
	IMPORT
	RETURN

	// Punctuation
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	COMMA
	SEMI
	DOT
	COLON

	// Operators
	ASSIGN // =
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	EQ  // ==
	NEQ // !=
	LT
	LTE
	GT
	GTE
	AND // &&
	OR  // ||
	NOT // !
)

var keywords = map[string]Kind{
	"let":    LET,
	"fn":     FN,
	"if":     IF,
	"elif":   ELIF,
	"else":   ELSE,
	"while":  WHILE,
	"try":    TRY,
	"except": EXCEPT,
	"import": IMPORT,
	"return": RETURN,
	"true":   BOOL,
	"false":  BOOL,
	"null":   NULL,
}

// Token is one lexeme with its source position.
type Token struct {
	Kind   Kind
	Lexeme string
	Pos    ast.Pos
}

// Error is a tokenization failure with position.
type Error struct {
	Pos ast.Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lex error at %s: %s", e.Pos, e.Msg)
}

// Lexer scans ML source into tokens.
type Lexer struct {
	src  string
	off  int
	line int
	col  int
}

// New creates a lexer over the given source.
func New(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Tokenize scans the whole input. The returned slice always ends with an EOF
// token carrying the final position.
func Tokenize(src string) ([]Token, error) {
	lx := New(src)
	var out []Token
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Kind == EOF {
			return out, nil
		}
	}
}

func (l *Lexer) peek() byte {
	if l.off >= len(l.src) {
		return 0
	}
	return l.src[l.off]
}

func (l *Lexer) peekAt(n int) byte {
	if l.off+n >= len(l.src) {
		return 0
	}
	return l.src[l.off+n]
}

func (l *Lexer) advance() byte {
	c := l.src[l.off]
	l.off++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *Lexer) pos() ast.Pos { return ast.Pos{Line: l.line, Col: l.col} }

func (l *Lexer) skipTrivia() {
	for l.off < len(l.src) {
		c := l.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '#':
			for l.off < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		case c == '/' && l.peekAt(1) == '/':
			for l.off < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// Next returns the next token.
func (l *Lexer) Next() (Token, error) {
	l.skipTrivia()
	start := l.pos()
	if l.off >= len(l.src) {
		return Token{Kind: EOF, Pos: start}, nil
	}

	c := l.peek()
	switch {
	case isIdentStart(c):
		return l.lexIdent(start), nil
	case c >= '0' && c <= '9':
		return l.lexNumber(start)
	case c == '"':
		return l.lexString(start)
	}

	l.advance()
	two := func(next byte, k Kind, lexeme string) (Token, bool) {
		if l.peek() == next {
			l.advance()
			return Token{Kind: k, Lexeme: lexeme, Pos: start}, true
		}
		return Token{}, false
	}

	switch c {
	case '(':
		return Token{Kind: LPAREN, Lexeme: "(", Pos: start}, nil
	case ')':
		return Token{Kind: RPAREN, Lexeme: ")", Pos: start}, nil
	case '{':
		return Token{Kind: LBRACE, Lexeme: "{", Pos: start}, nil
	case '}':
		return Token{Kind: RBRACE, Lexeme: "}", Pos: start}, nil
	case '[':
		return Token{Kind: LBRACKET, Lexeme: "[", Pos: start}, nil
	case ']':
		return Token{Kind: RBRACKET, Lexeme: "]", Pos: start}, nil
	case ',':
		return Token{Kind: COMMA, Lexeme: ",", Pos: start}, nil
	case ';':
		return Token{Kind: SEMI, Lexeme: ";", Pos: start}, nil
	case '.':
		return Token{Kind: DOT, Lexeme: ".", Pos: start}, nil
	case ':':
		return Token{Kind: COLON, Lexeme: ":", Pos: start}, nil
	case '+':
		return Token{Kind: PLUS, Lexeme: "+", Pos: start}, nil
	case '-':
		return Token{Kind: MINUS, Lexeme: "-", Pos: start}, nil
	case '*':
		return Token{Kind: STAR, Lexeme: "*", Pos: start}, nil
	case '/':
		return Token{Kind: SLASH, Lexeme: "/", Pos: start}, nil
	case '%':
		return Token{Kind: PERCENT, Lexeme: "%", Pos: start}, nil
	case '=':
		if tok, ok := two('=', EQ, "=="); ok {
			return tok, nil
		}
		return Token{Kind: ASSIGN, Lexeme: "=", Pos: start}, nil
	case '!':
		if tok, ok := two('=', NEQ, "!="); ok {
			return tok, nil
		}
		return Token{Kind: NOT, Lexeme: "!", Pos: start}, nil
	case '<':
		if tok, ok := two('=', LTE, "<="); ok {
			return tok, nil
		}
		return Token{Kind: LT, Lexeme: "<", Pos: start}, nil
	case '>':
		if tok, ok := two('=', GTE, ">="); ok {
			return tok, nil
		}
		return Token{Kind: GT, Lexeme: ">", Pos: start}, nil
	case '&':
		if tok, ok := two('&', AND, "&&"); ok {
			return tok, nil
		}
		return Token{}, &Error{Pos: start, Msg: "expected '&&'"}
	case '|':
		if tok, ok := two('|', OR, "||"); ok {
			return tok, nil
		}
		return Token{}, &Error{Pos: start, Msg: "expected '||'"}
	}

	return Token{}, &Error{Pos: start, Msg: fmt.Sprintf("unexpected character %q", c)}
}

func (l *Lexer) lexIdent(start ast.Pos) Token {
	begin := l.off
	for l.off < len(l.src) && isIdentPart(l.peek()) {
		l.advance()
	}
	text := l.src[begin:l.off]
	if kind, ok := keywords[text]; ok {
		return Token{Kind: kind, Lexeme: text, Pos: start}
	}
	return Token{Kind: IDENT, Lexeme: text, Pos: start}
}

func (l *Lexer) lexNumber(start ast.Pos) (Token, error) {
	begin := l.off
	for l.off < len(l.src) && l.peek() >= '0' && l.peek() <= '9' {
		l.advance()
	}
	isFloat := false
	if l.peek() == '.' && l.peekAt(1) >= '0' && l.peekAt(1) <= '9' {
		isFloat = true
		l.advance()
		for l.off < len(l.src) && l.peek() >= '0' && l.peek() <= '9' {
			l.advance()
		}
	}
	text := l.src[begin:l.off]
	if isIdentStart(l.peek()) {
		return Token{}, &Error{Pos: start, Msg: fmt.Sprintf("malformed number %q", text+string(l.peek()))}
	}
	if isFloat {
		return Token{Kind: FLOAT, Lexeme: text, Pos: start}, nil
	}
	return Token{Kind: INT, Lexeme: text, Pos: start}, nil
}

func (l *Lexer) lexString(start ast.Pos) (Token, error) {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.off >= len(l.src) {
			return Token{}, &Error{Pos: start, Msg: "unterminated string"}
		}
		c := l.advance()
		switch c {
		case '"':
			return Token{Kind: STRING, Lexeme: sb.String(), Pos: start}, nil
		case '\n':
			return Token{}, &Error{Pos: start, Msg: "unterminated string"}
		case '\\':
			if l.off >= len(l.src) {
				return Token{}, &Error{Pos: start, Msg: "unterminated escape"}
			}
			e := l.advance()
			switch e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				return Token{}, &Error{Pos: start, Msg: fmt.Sprintf("unknown escape \\%c", e)}
			}
		default:
			sb.WriteByte(c)
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
