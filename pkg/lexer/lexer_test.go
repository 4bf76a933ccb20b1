package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/loxvm/pkg/lexer"
	"github.com/kristofer/loxvm/pkg/token"
)

func TestNextTokenBasicPunctuation(t *testing.T) {
	l := lexer.New(`(){},.-+;*/`)

	kinds := []token.Kind{
		token.LEFT_PAREN, token.RIGHT_PAREN, token.LEFT_BRACE, token.RIGHT_BRACE,
		token.COMMA, token.DOT, token.MINUS, token.PLUS, token.SEMICOLON,
		token.STAR, token.SLASH, token.EOF,
	}
	for i, want := range kinds {
		tok := l.NextToken()
		assert.Equalf(t, want, tok.Kind, "token %d", i)
	}
}

func TestNextTokenOneOrTwoCharOperators(t *testing.T) {
	l := lexer.New(`! != = == < <= > >=`)

	kinds := []token.Kind{
		token.BANG, token.BANG_EQUAL, token.EQUAL, token.EQUAL_EQUAL,
		token.LESS, token.LESS_EQUAL, token.GREATER, token.GREATER_EQUAL,
	}
	for i, want := range kinds {
		tok := l.NextToken()
		require.Equalf(t, want, tok.Kind, "token %d", i)
	}
}

func TestNextTokenNumberLiterals(t *testing.T) {
	l := lexer.New(`123 3.14`)

	tok := l.NextToken()
	assert.Equal(t, token.NUMBER, tok.Kind)
	assert.Equal(t, "123", tok.Lexeme)

	tok = l.NextToken()
	assert.Equal(t, token.NUMBER, tok.Kind)
	assert.Equal(t, "3.14", tok.Lexeme)
}

func TestNextTokenStringLiteral(t *testing.T) {
	l := lexer.New(`"hello world"`)

	tok := l.NextToken()
	require.Equal(t, token.STRING, tok.Kind)
	assert.Equal(t, `"hello world"`, tok.Lexeme)
}

func TestNextTokenUnterminatedStringIsError(t *testing.T) {
	l := lexer.New(`"oops`)

	tok := l.NextToken()
	require.Equal(t, token.ERROR, tok.Kind)
	assert.Contains(t, tok.Lexeme, "Unterminated string.")
}

func TestNextTokenKeywordsAndIdentifiers(t *testing.T) {
	l := lexer.New(`class fun var if else while for return this super nil true false and or print myVar`)

	kinds := []token.Kind{
		token.CLASS, token.FUN, token.VAR, token.IF, token.ELSE, token.WHILE,
		token.FOR, token.RETURN, token.THIS, token.SUPER, token.NIL,
		token.TRUE, token.FALSE, token.AND, token.OR, token.PRINT,
		token.IDENTIFIER,
	}
	for i, want := range kinds {
		tok := l.NextToken()
		require.Equalf(t, want, tok.Kind, "token %d", i)
	}
}

func TestNextTokenSkipsCommentsAndTracksLines(t *testing.T) {
	l := lexer.New("// a comment\nvar a = 1;\n// another\nvar b = 2;")

	tok := l.NextToken()
	require.Equal(t, token.VAR, tok.Kind)
	assert.Equal(t, 2, tok.Line)

	for tok.Kind != token.SEMICOLON {
		tok = l.NextToken()
	}

	tok = l.NextToken()
	require.Equal(t, token.VAR, tok.Kind)
	assert.Equal(t, 4, tok.Line)
}

func TestNextTokenUnexpectedCharacterIsError(t *testing.T) {
	l := lexer.New("@")

	tok := l.NextToken()
	require.Equal(t, token.ERROR, tok.Kind)
	assert.Contains(t, tok.Lexeme, "Unexpected character.")
}

func TestNextTokenRepeatsEOF(t *testing.T) {
	l := lexer.New("")

	first := l.NextToken()
	second := l.NextToken()
	assert.Equal(t, token.EOF, first.Kind)
	assert.Equal(t, token.EOF, second.Kind)
}
