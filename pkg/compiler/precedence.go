package compiler

import "github.com/kristofer/loxvm/pkg/token"

// precedence orders the Pratt rule table, ascending as in spec.md §4.1.
type precedence int

const (
	precNone precedence = iota
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// rules is the dense dispatch table spec.md §9 calls a Pratt rule table
// "a dense array indexed by token kind"; a map serves the same
// deterministic-lookup role without requiring Kind to be a small
// contiguous range.
var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LEFT_PAREN:    {(*Compiler).grouping, (*Compiler).call, precCall},
		token.DOT:           {nil, (*Compiler).dot, precCall},
		token.MINUS:         {(*Compiler).unary, (*Compiler).binary, precTerm},
		token.PLUS:          {nil, (*Compiler).binary, precTerm},
		token.SLASH:         {nil, (*Compiler).binary, precFactor},
		token.STAR:          {nil, (*Compiler).binary, precFactor},
		token.BANG:          {(*Compiler).unary, nil, precNone},
		token.BANG_EQUAL:    {nil, (*Compiler).binary, precEquality},
		token.EQUAL_EQUAL:   {nil, (*Compiler).binary, precEquality},
		token.GREATER:       {nil, (*Compiler).binary, precComparison},
		token.GREATER_EQUAL: {nil, (*Compiler).binary, precComparison},
		token.LESS:          {nil, (*Compiler).binary, precComparison},
		token.LESS_EQUAL:    {nil, (*Compiler).binary, precComparison},
		token.IDENTIFIER:    {(*Compiler).variable, nil, precNone},
		token.STRING:        {(*Compiler).string_, nil, precNone},
		token.NUMBER:        {(*Compiler).number, nil, precNone},
		token.AND:           {nil, (*Compiler).and_, precAnd},
		token.OR:            {nil, (*Compiler).or_, precOr},
		token.FALSE:         {(*Compiler).literal, nil, precNone},
		token.NIL:           {(*Compiler).literal, nil, precNone},
		token.TRUE:          {(*Compiler).literal, nil, precNone},
		token.SUPER:         {(*Compiler).super_, nil, precNone},
		token.THIS:          {(*Compiler).this_, nil, precNone},
	}
}

func getRule(kind token.Kind) parseRule {
	if r, ok := rules[kind]; ok {
		return r
	}
	return parseRule{precedence: precNone}
}
