package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestBooleansAreNeverIdentifiers(t *testing.T) {
	toks, err := Tokenize("true false truthy")
	require.NoError(t, err)

	assert.Equal(t, []Kind{BOOL, BOOL, IDENT, EOF}, kinds(toks))
	assert.Equal(t, "true", toks[0].Lexeme)
	assert.Equal(t, "false", toks[1].Lexeme)
	assert.Equal(t, "truthy", toks[2].Lexeme)
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	toks, err := Tokenize("let fn if elif else while try except import return null letx")
	require.NoError(t, err)
	assert.Equal(t, []Kind{
		LET, FN, IF, ELIF, ELSE, WHILE, TRY, EXCEPT, IMPORT, RETURN, NULL, IDENT, EOF,
	}, kinds(toks))
}

func TestNumbers(t *testing.T) {
	toks, err := Tokenize("42 3.14 0")
	require.NoError(t, err)
	assert.Equal(t, []Kind{INT, FLOAT, INT, EOF}, kinds(toks))
	assert.Equal(t, "3.14", toks[1].Lexeme)

	_, err = Tokenize("12abc")
	assert.Error(t, err)
}

func TestStringsWithEscapes(t *testing.T) {
	toks, err := Tokenize(`"hello\n\"world\""`)
	require.NoError(t, err)
	assert.Equal(t, "hello\n\"world\"", toks[0].Lexeme)

	_, err = Tokenize(`"unterminated`)
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
}

func TestOperators(t *testing.T) {
	toks, err := Tokenize("== != <= >= && || ! = < >")
	require.NoError(t, err)
	assert.Equal(t, []Kind{EQ, NEQ, LTE, GTE, AND, OR, NOT, ASSIGN, LT, GT, EOF}, kinds(toks))

	_, err = Tokenize("&")
	assert.Error(t, err)
}

func TestPositionsAndComments(t *testing.T) {
	src := "let x = 1; # trailing\n// full line\nx;"
	toks, err := Tokenize(src)
	require.NoError(t, err)

	assert.Equal(t, 1, toks[0].Pos.Line)
	assert.Equal(t, 1, toks[0].Pos.Col)
	assert.Equal(t, 5, toks[1].Pos.Col) // x

	var found bool
	for _, tok := range toks {
		if tok.Kind == IDENT && tok.Pos.Line == 3 {
			assert.Equal(t, 1, tok.Pos.Col)
			found = true
		}
	}
	assert.True(t, found)
}
