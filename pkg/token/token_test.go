package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kristofer/loxvm/pkg/token"
)

func TestLookupIdentifierRecognizesKeywords(t *testing.T) {
	assert.Equal(t, token.CLASS, token.LookupIdentifier("class"))
	assert.Equal(t, token.AND, token.LookupIdentifier("and"))
	assert.Equal(t, token.WHILE, token.LookupIdentifier("while"))
}

func TestLookupIdentifierFallsBackToIdentifier(t *testing.T) {
	assert.Equal(t, token.IDENTIFIER, token.LookupIdentifier("myVariable"))
	assert.Equal(t, token.IDENTIFIER, token.LookupIdentifier("classy"))
}

func TestKindStringRendersOperatorsAndKeywords(t *testing.T) {
	assert.Equal(t, "+", token.PLUS.String())
	assert.Equal(t, "<=", token.LESS_EQUAL.String())
	assert.Equal(t, "class", token.CLASS.String())
	assert.Equal(t, "EOF", token.EOF.String())
}

func TestTokenStringFormatsKindAndLexeme(t *testing.T) {
	tok := token.Token{Kind: token.IDENTIFIER, Lexeme: "foo", Line: 3}
	assert.Equal(t, "IDENTIFIER(foo)", tok.String())
}
