// Package compiler implements the single-pass Pratt compiler: it
// consumes the scanner's token stream directly and emits bytecode into
// a value.Chunk, with no intermediate AST (spec.md §4.1). This departs
// from the teacher's own two-stage design — pkg/parser building an
// ast.Program that pkg/compiler then walks — because the source
// language's grammar is expression-precedence-driven in a way Smalltalk
// message sends are not; a Pratt parser reading tokens straight into
// bytecode is the idiom this grammar calls for (see DESIGN.md).
package compiler

import (
	"fmt"
	"strconv"

	"github.com/kristofer/loxvm/pkg/lexer"
	"github.com/kristofer/loxvm/pkg/token"
	"github.com/kristofer/loxvm/pkg/value"
)

// funcType discriminates what kind of function body a frame is
// compiling, per spec.md §4.1's "function-type discriminant".
type funcType int

const (
	typeFunction funcType = iota
	typeScript
	typeMethod
	typeInitializer
)

const maxLocals = 256
const maxUpvalues = 256

type localVar struct {
	name       string
	depth      int
	isCaptured bool
}

type upvalueDesc struct {
	index   int
	isLocal bool
}

// classState is one entry of the class-compiler chain of spec.md §4.1,
// validating `this`/`super` usage. It outlives only the class body being
// compiled and must never be retained past that (spec.md §9: "Parent
// pointers... are borrow-only").
type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

// frame is one compiler-frame of spec.md §4.1: one per function
// currently under construction, linked to its lexically enclosing frame.
type frame struct {
	enclosing  *frame
	function   *value.ObjFunction
	kind       funcType
	locals     []localVar
	scopeDepth int
	upvalues   []upvalueDesc
}

// Compiler is the parser-plus-frame-stack state a single Compile call
// threads through every declaration and expression it emits. It
// implements value.RootMarker so a concurrent-with-compiling GC (driven
// by string interning and function allocation) can see every
// in-progress Function via the frame chain (spec.md §4.3's "compiler
// roots").
type Compiler struct {
	lex       *lexer.Lexer
	heap      *value.Heap
	current   token.Token
	previous  token.Token
	hadError  bool
	panicMode bool
	errors    []string

	top   *frame
	class *classState
}

// Compile compiles source into a top-level script Function. On failure
// it returns a nil Function and the accumulated compile-error messages,
// each formatted as spec.md §7 requires: "[line L] Error at '<lexeme>':
// <msg>".
func Compile(source string, heap *value.Heap) (*value.ObjFunction, []string) {
	c := &Compiler{lex: lexer.New(source), heap: heap}
	c.pushFrame(typeScript, nil)

	heap.AddRootMarker(c)
	defer heap.RemoveRootMarker(c)

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}

	fn, _ := c.popFrame()
	if c.hadError {
		return nil, c.errors
	}
	return fn, nil
}

// MarkRoots marks every Function currently under construction, in every
// nested frame, as reachable.
func (c *Compiler) MarkRoots(h *value.Heap) {
	for f := c.top; f != nil; f = f.enclosing {
		h.MarkObject(f.function)
	}
}

func (c *Compiler) pushFrame(kind funcType, name *value.ObjString) {
	fn := c.heap.NewFunction()
	fn.Name = name
	f := &frame{enclosing: c.top, function: fn, kind: kind}
	// Slot 0 is reserved: the receiver for methods/initializers, an
	// unnamed empty slot for plain functions and the top-level script
	// (spec.md §4.2: "slots points into the value stack... receiver or
	// empty-slot at index 0").
	receiver := ""
	if kind == typeMethod || kind == typeInitializer {
		receiver = "this"
	}
	f.locals = append(f.locals, localVar{name: receiver, depth: 0})
	c.top = f
}

// popFrame emits the frame's implicit return, detaches it from the
// chain, and returns both the finished Function and its upvalue
// descriptor list (needed by the caller to emit OP_CLOSURE).
func (c *Compiler) popFrame() (*value.ObjFunction, []upvalueDesc) {
	c.emitReturn()
	f := c.top
	f.function.UpvalueCount = len(f.upvalues)
	c.top = f.enclosing
	return f.function, f.upvalues
}

// --- token stream -------------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lex.NextToken()
		if c.current.Kind != token.ERROR {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(kind token.Kind) bool { return c.current.Kind == kind }

func (c *Compiler) match(kind token.Kind) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(kind token.Kind, msg string) {
	if c.current.Kind == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.previous, msg) }

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	where := "at '" + tok.Lexeme + "'"
	if tok.Kind == token.EOF {
		where = "at end"
	} else if tok.Kind == token.ERROR {
		where = ""
	}
	if where == "" {
		c.errors = append(c.errors, fmt.Sprintf("[line %d] Error: %s", tok.Line, msg))
	} else {
		c.errors = append(c.errors, fmt.Sprintf("[line %d] Error %s: %s", tok.Line, where, msg))
	}
}

func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Kind != token.EOF {
		if c.previous.Kind == token.SEMICOLON {
			return
		}
		switch c.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// --- bytecode emission ---------------------------------------------------

func (c *Compiler) chunk() *value.Chunk { return c.top.function.Chunk }

func (c *Compiler) emit(op value.Opcode) int {
	return c.chunk().Write(op, 0, 0, c.previous.Line)
}

func (c *Compiler) emitBytes(op value.Opcode, a int) int {
	return c.chunk().Write(op, a, 0, c.previous.Line)
}

func (c *Compiler) emitInvoke(op value.Opcode, nameConstant, argCount int) {
	c.chunk().Write(op, nameConstant, argCount, c.previous.Line)
}

func (c *Compiler) emitReturn() {
	if c.top.kind == typeInitializer {
		c.emitBytes(value.OpGetLocal, 0)
	} else {
		c.emit(value.OpNil)
	}
	c.emit(value.OpReturn)
}

func (c *Compiler) emitConstant(v value.Value) {
	idx, ok := c.chunk().AddConstant(v)
	if !ok {
		c.error("Too many constants in one chunk.")
		return
	}
	c.emitBytes(value.OpConstant, idx)
}

func (c *Compiler) emitJump(op value.Opcode) int {
	return c.emitBytes(op, 0xFFFF)
}

func (c *Compiler) patchJump(index int) {
	if !c.chunk().PatchJump(index) {
		c.error("Too much code to jump over.")
	}
}

func (c *Compiler) emitLoop(loopStart int) {
	if !c.chunk().EmitLoop(loopStart, c.previous.Line) {
		c.error("Loop body too large.")
	}
}

// --- declarations and statements -----------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(token.CLASS):
		c.classDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) classDeclaration() {
	c.consume(token.IDENTIFIER, "Expect class name.")
	className := c.previous
	nameConstant := c.identifierConstant(className)
	c.declareVariable()

	c.emitBytes(value.OpClass, nameConstant)
	c.defineVariable(nameConstant)

	enclosingClass := c.class
	c.class = &classState{enclosing: enclosingClass}
	defer func() { c.class = enclosingClass }()

	if c.match(token.LESS) {
		c.consume(token.IDENTIFIER, "Expect superclass name.")
		c.variable(false)

		if className.Lexeme == c.previous.Lexeme {
			c.error("A class can't inherit from itself.")
		}

		c.beginScope()
		c.addLocal(token.Token{Kind: token.IDENTIFIER, Lexeme: "super"})
		c.defineVariable(0)

		c.namedVariable(className, false)
		c.emit(value.OpInherit)
		c.class.hasSuperclass = true
	}

	c.namedVariable(className, false)
	c.consume(token.LEFT_BRACE, "Expect '{' before class body.")
	for !c.check(token.RIGHT_BRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RIGHT_BRACE, "Expect '}' after class body.")
	c.emit(value.OpPop)

	if c.class.hasSuperclass {
		c.endScope()
	}
}

func (c *Compiler) method() {
	c.consume(token.IDENTIFIER, "Expect method name.")
	name := c.previous
	constant := c.identifierConstant(name)

	kind := typeMethod
	if name.Lexeme == "init" {
		kind = typeInitializer
	}
	c.functionBody(kind)
	c.emitBytes(value.OpMethod, constant)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.functionBody(typeFunction)
	c.defineVariable(global)
}

func (c *Compiler) functionBody(kind funcType) {
	name := c.heap.InternString(c.previous.Lexeme)
	c.pushFrame(kind, name)
	c.beginScope()

	c.consume(token.LEFT_PAREN, "Expect '(' after function name.")
	if !c.check(token.RIGHT_PAREN) {
		for {
			c.top.function.Arity++
			if c.top.function.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := c.parseVariable("Expect parameter name.")
			c.defineVariable(constant)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RIGHT_PAREN, "Expect ')' after parameters.")
	c.consume(token.LEFT_BRACE, "Expect '{' before function body.")
	c.block()

	fn, upvalues := c.popFrame()
	constant, ok := c.chunk().AddConstant(value.FromObj(fn))
	if !ok {
		c.error("Too many constants in one chunk.")
		return
	}
	refs := make([]value.UpvalueRef, len(upvalues))
	for i, uv := range upvalues {
		refs[i] = value.UpvalueRef{IsLocal: uv.isLocal, Index: uv.index}
	}
	c.chunk().WriteClosure(constant, refs, c.previous.Line)
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(token.EQUAL) {
		c.expression()
	} else {
		c.emit(value.OpNil)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) parseVariable(errMsg string) int {
	c.consume(token.IDENTIFIER, errMsg)
	c.declareVariable()
	if c.top.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous)
}

func (c *Compiler) identifierConstant(name token.Token) int {
	str := c.heap.InternString(name.Lexeme)
	idx, ok := c.chunk().AddConstant(value.FromObj(str))
	if !ok {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return idx
}

func (c *Compiler) declareVariable() {
	if c.top.scopeDepth == 0 {
		return
	}
	name := c.previous
	for i := len(c.top.locals) - 1; i >= 0; i-- {
		local := c.top.locals[i]
		if local.depth != -1 && local.depth < c.top.scopeDepth {
			break
		}
		if name.Lexeme == local.name {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name token.Token) {
	if len(c.top.locals) >= maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.top.locals = append(c.top.locals, localVar{name: name.Lexeme, depth: -1})
}

func (c *Compiler) markInitialized() {
	if c.top.scopeDepth == 0 {
		return
	}
	c.top.locals[len(c.top.locals)-1].depth = c.top.scopeDepth
}

func (c *Compiler) defineVariable(global int) {
	if c.top.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitBytes(value.OpDefineGlobal, global)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.LEFT_BRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emit(value.OpPrint)
}

func (c *Compiler) returnStatement() {
	if c.top.kind == typeScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(token.SEMICOLON) {
		c.emitReturn()
		return
	}
	if c.top.kind == typeInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after return value.")
	c.emit(value.OpReturn)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LEFT_PAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(value.OpJumpIfFalse)
	c.emit(value.OpPop)
	c.statement()

	elseJump := c.emitJump(value.OpJump)
	c.patchJump(thenJump)
	c.emit(value.OpPop)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.consume(token.LEFT_PAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(value.OpJumpIfFalse)
	c.emit(value.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emit(value.OpPop)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LEFT_PAREN, "Expect '(' after 'for'.")

	switch {
	case c.match(token.SEMICOLON):
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.match(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = c.emitJump(value.OpJumpIfFalse)
		c.emit(value.OpPop)
	}

	if !c.match(token.RIGHT_PAREN) {
		bodyJump := c.emitJump(value.OpJump)
		incrementStart := len(c.chunk().Code)
		c.expression()
		c.emit(value.OpPop)
		c.consume(token.RIGHT_PAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emit(value.OpPop)
	}
	c.endScope()
}

func (c *Compiler) block() {
	for !c.check(token.RIGHT_BRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RIGHT_BRACE, "Expect '}' after block.")
}

func (c *Compiler) beginScope() { c.top.scopeDepth++ }

func (c *Compiler) endScope() {
	c.top.scopeDepth--
	for len(c.top.locals) > 0 && c.top.locals[len(c.top.locals)-1].depth > c.top.scopeDepth {
		last := c.top.locals[len(c.top.locals)-1]
		if last.isCaptured {
			c.emit(value.OpCloseUpvalue)
		} else {
			c.emit(value.OpPop)
		}
		c.top.locals = c.top.locals[:len(c.top.locals)-1]
	}
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emit(value.OpPop)
}

// --- expressions ----------------------------------------------------------

func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := getRule(c.previous.Kind).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}
	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= getRule(c.current.Kind).precedence {
		c.advance()
		infix := getRule(c.previous.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.EQUAL) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expect ')' after expression.")
}

func (c *Compiler) number(_ bool) {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(value.Number(n))
}

func (c *Compiler) string_(_ bool) {
	lexeme := c.previous.Lexeme
	str := c.heap.InternString(lexeme[1 : len(lexeme)-1])
	c.emitConstant(value.FromObj(str))
}

func (c *Compiler) literal(_ bool) {
	switch c.previous.Kind {
	case token.FALSE:
		c.emit(value.OpFalse)
	case token.NIL:
		c.emit(value.OpNil)
	case token.TRUE:
		c.emit(value.OpTrue)
	}
}

func (c *Compiler) unary(_ bool) {
	opKind := c.previous.Kind
	c.parsePrecedence(precUnary)
	switch opKind {
	case token.BANG:
		c.emit(value.OpNot)
	case token.MINUS:
		c.emit(value.OpNegate)
	}
}

func (c *Compiler) binary(_ bool) {
	opKind := c.previous.Kind
	rule := getRule(opKind)
	c.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case token.BANG_EQUAL:
		c.emit(value.OpEqual)
		c.emit(value.OpNot)
	case token.EQUAL_EQUAL:
		c.emit(value.OpEqual)
	case token.GREATER:
		c.emit(value.OpGreater)
	case token.GREATER_EQUAL:
		c.emit(value.OpLess)
		c.emit(value.OpNot)
	case token.LESS:
		c.emit(value.OpLess)
	case token.LESS_EQUAL:
		c.emit(value.OpGreater)
		c.emit(value.OpNot)
	case token.PLUS:
		c.emit(value.OpAdd)
	case token.MINUS:
		c.emit(value.OpSubtract)
	case token.STAR:
		c.emit(value.OpMultiply)
	case token.SLASH:
		c.emit(value.OpDivide)
	}
}

// and_ implements spec.md §4.1's short-circuit: if the lhs (already on
// the stack) is falsey, JUMP_IF_FALSE skips straight past the rhs,
// leaving the falsey lhs as the expression's value; otherwise POP it and
// evaluate the rhs.
func (c *Compiler) and_(_ bool) {
	endJump := c.emitJump(value.OpJumpIfFalse)
	c.emit(value.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

// or_ implements spec.md §4.1's "JUMP_IF_FALSE over a JUMP" pattern bit
// for bit: when the lhs is truthy, JUMP_IF_FALSE falls through to an
// unconditional JUMP past the rhs, so the truthy lhs is left on the
// stack; when falsey, control lands on the POP + rhs evaluation.
func (c *Compiler) or_(_ bool) {
	elseJump := c.emitJump(value.OpJumpIfFalse)
	endJump := c.emitJump(value.OpJump)
	c.patchJump(elseJump)
	c.emit(value.OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(_ bool) {
	argCount := c.argumentList()
	c.emitBytes(value.OpCall, argCount)
}

func (c *Compiler) argumentList() int {
	argCount := 0
	if !c.check(token.RIGHT_PAREN) {
		for {
			c.expression()
			if argCount == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			argCount++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RIGHT_PAREN, "Expect ')' after arguments.")
	return argCount
}

func (c *Compiler) dot(canAssign bool) {
	c.consume(token.IDENTIFIER, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous)

	switch {
	case canAssign && c.match(token.EQUAL):
		c.expression()
		c.emitBytes(value.OpSetProperty, name)
	case c.match(token.LEFT_PAREN):
		argCount := c.argumentList()
		c.emitInvoke(value.OpInvoke, name, argCount)
	default:
		c.emitBytes(value.OpGetProperty, name)
	}
}

func (c *Compiler) this_(_ bool) {
	if c.class == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.variable(false)
}

func (c *Compiler) super_(_ bool) {
	if c.class == nil {
		c.error("Can't use 'super' outside of a class.")
	} else if !c.class.hasSuperclass {
		c.error("Can't use 'super' in a class with no superclass.")
	}

	c.consume(token.DOT, "Expect '.' after 'super'.")
	c.consume(token.IDENTIFIER, "Expect superclass method name.")
	name := c.identifierConstant(c.previous)

	c.namedVariable(token.Token{Kind: token.THIS, Lexeme: "this"}, false)
	if c.match(token.LEFT_PAREN) {
		argCount := c.argumentList()
		c.namedVariable(token.Token{Kind: token.SUPER, Lexeme: "super"}, false)
		c.emitInvoke(value.OpSuperInvoke, name, argCount)
	} else {
		c.namedVariable(token.Token{Kind: token.SUPER, Lexeme: "super"}, false)
		c.emitBytes(value.OpGetSuper, name)
	}
}

func (c *Compiler) variable(canAssign bool) { c.namedVariable(c.previous, canAssign) }

func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp value.Opcode
	arg, ok := c.resolveLocal(c.top, name)
	switch {
	case ok:
		getOp, setOp = value.OpGetLocal, value.OpSetLocal
	default:
		if arg, ok = c.resolveUpvalue(c.top, name); ok {
			getOp, setOp = value.OpGetUpvalue, value.OpSetUpvalue
		} else {
			arg = c.identifierConstant(name)
			getOp, setOp = value.OpGetGlobal, value.OpSetGlobal
		}
	}

	if canAssign && c.match(token.EQUAL) {
		c.expression()
		c.emitBytes(setOp, arg)
	} else {
		c.emitBytes(getOp, arg)
	}
}

// resolveLocal implements spec.md §4.1's resolve_local: innermost-first
// scan, erroring if the match is still mid-initialization.
func (c *Compiler) resolveLocal(f *frame, name token.Token) (int, bool) {
	for i := len(f.locals) - 1; i >= 0; i-- {
		if f.locals[i].name == name.Lexeme {
			if f.locals[i].depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i, true
		}
	}
	return 0, false
}

// resolveUpvalue implements spec.md §4.1's resolve_upvalue recursion,
// marking any enclosing local it captures and deduplicating descriptors.
func (c *Compiler) resolveUpvalue(f *frame, name token.Token) (int, bool) {
	if f.enclosing == nil {
		return 0, false
	}
	if idx, ok := c.resolveLocal(f.enclosing, name); ok {
		f.enclosing.locals[idx].isCaptured = true
		return c.addUpvalue(f, idx, true), true
	}
	if idx, ok := c.resolveUpvalue(f.enclosing, name); ok {
		return c.addUpvalue(f, idx, false), true
	}
	return 0, false
}

func (c *Compiler) addUpvalue(f *frame, index int, isLocal bool) int {
	for i, uv := range f.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(f.upvalues) >= maxUpvalues {
		c.error("Too many closure variables in function.")
		return 0
	}
	f.upvalues = append(f.upvalues, upvalueDesc{index: index, isLocal: isLocal})
	return len(f.upvalues) - 1
}
