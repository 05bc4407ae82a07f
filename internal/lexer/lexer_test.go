package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JacobC09/JakePlusPlus/internal/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	l := New(src)
	var toks []token.Token
	for {
		tok := l.ScanToken()
		toks = append(toks, tok)
		if tok.Kind == token.EOF || tok.Kind == token.Error {
			return toks
		}
	}
}

func TestLexerBasicTokens(t *testing.T) {
	toks := scanAll(t, `func add(a, b) { return a + b; }`)
	kinds := make([]token.Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	assert.Equal(t, []token.Kind{
		token.Func, token.Identifier, token.LeftParen, token.Identifier, token.Comma,
		token.Identifier, token.RightParen, token.LeftBrace, token.Return, token.Identifier,
		token.Plus, token.Identifier, token.Semicolon, token.RightBrace, token.EOF,
	}, kinds)
}

func TestLexerCompoundAssignmentOperators(t *testing.T) {
	toks := scanAll(t, `a += 1; b -= 2; c *= 3; d /= 4;`)
	var kinds []token.Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Contains(t, kinds, token.PlusEqual)
	assert.Contains(t, kinds, token.MinusEqual)
	assert.Contains(t, kinds, token.StarEqual)
	assert.Contains(t, kinds, token.SlashEqual)
}

func TestLexerKeywords(t *testing.T) {
	toks := scanAll(t, `class this super var true false none and or while for if else print`)
	require.Len(t, toks, 15)
	expected := []token.Kind{
		token.Class, token.This, token.Super, token.Var, token.True, token.False,
		token.None, token.And, token.Or, token.While, token.For, token.If, token.Else,
		token.Print, token.EOF,
	}
	for i, tok := range toks {
		assert.Equal(t, expected[i], tok.Kind, "token %d", i)
	}
}

func TestLexerNumberLiterals(t *testing.T) {
	toks := scanAll(t, `1 12.5 .25`)
	require.Len(t, toks, 4)
	assert.Equal(t, "1", toks[0].Source)
	assert.Equal(t, "12.5", toks[1].Source)
	assert.Equal(t, ".25", toks[2].Source)
}

func TestLexerStringLiteralAllowsBothQuoteStyles(t *testing.T) {
	toks := scanAll(t, `"double" 'single'`)
	require.Len(t, toks, 3)
	assert.Equal(t, token.String, toks[0].Kind)
	assert.Equal(t, `"double"`, toks[0].Source)
	assert.Equal(t, token.String, toks[1].Kind)
	assert.Equal(t, `'single'`, toks[1].Source)
}

func TestLexerUnterminatedStringIsAnErrorToken(t *testing.T) {
	toks := scanAll(t, `"never closes`)
	require.Len(t, toks, 1)
	assert.Equal(t, token.Error, toks[0].Kind)
}

func TestLexerSkipsLineCommentsAndTracksLines(t *testing.T) {
	toks := scanAll(t, "var a = 1; // trailing comment\nvar b = 2;")
	var lines []int
	for _, tok := range toks {
		lines = append(lines, tok.Line)
	}
	assert.Equal(t, 1, lines[0])
	last := toks[len(toks)-2] // final ";" token before EOF
	assert.Equal(t, 2, last.Line)
}

func TestLexerReportsUnrecognisedCharacter(t *testing.T) {
	toks := scanAll(t, `@`)
	require.Len(t, toks, 1)
	assert.Equal(t, token.Error, toks[0].Kind)
}
