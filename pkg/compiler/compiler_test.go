package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/loxvm/pkg/compiler"
	"github.com/kristofer/loxvm/pkg/value"
)

func opcodes(chunk *value.Chunk) []value.Opcode {
	ops := make([]value.Opcode, len(chunk.Code))
	for i, inst := range chunk.Code {
		ops[i] = inst.Op
	}
	return ops
}

func TestCompileArithmeticExpression(t *testing.T) {
	h := value.NewHeap()
	fn, errs := compiler.Compile(`print 1 + 2 * 3;`, h)
	require.Empty(t, errs)
	require.NotNil(t, fn)

	assert.Equal(t, []value.Opcode{
		value.OpConstant, value.OpConstant, value.OpConstant,
		value.OpMultiply, value.OpAdd, value.OpPrint,
		value.OpNil, value.OpReturn,
	}, opcodes(fn.Chunk))
}

func TestCompileVarDeclarationAndGlobal(t *testing.T) {
	h := value.NewHeap()
	fn, errs := compiler.Compile(`var a = "foo"; print a;`, h)
	require.Empty(t, errs)

	assert.Equal(t, []value.Opcode{
		value.OpConstant, value.OpDefineGlobal,
		value.OpGetGlobal, value.OpPrint,
		value.OpNil, value.OpReturn,
	}, opcodes(fn.Chunk))
}

func TestCompileLocalScope(t *testing.T) {
	h := value.NewHeap()
	fn, errs := compiler.Compile(`{ var a = 1; print a; }`, h)
	require.Empty(t, errs)

	assert.Equal(t, []value.Opcode{
		value.OpConstant, value.OpGetLocal, value.OpPrint, value.OpPop,
		value.OpNil, value.OpReturn,
	}, opcodes(fn.Chunk))
}

func TestCompileOrShortCircuitPattern(t *testing.T) {
	h := value.NewHeap()
	fn, errs := compiler.Compile(`print false or true;`, h)
	require.Empty(t, errs)

	ops := opcodes(fn.Chunk)
	require.GreaterOrEqual(t, len(ops), 3)
	assert.Equal(t, value.OpJumpIfFalse, ops[1])
	assert.Equal(t, value.OpJump, ops[2])
}

func TestCompileFunctionClosureAndUpvalue(t *testing.T) {
	h := value.NewHeap()
	fn, errs := compiler.Compile(`
		fun makeCounter() {
			var i = 0;
			fun c() { i = i + 1; return i; }
			return c;
		}
	`, h)
	require.Empty(t, errs)
	require.NotNil(t, fn)

	ops := opcodes(fn.Chunk)
	assert.Contains(t, ops, value.OpClosure)
}

func TestCompileClassWithInit(t *testing.T) {
	h := value.NewHeap()
	fn, errs := compiler.Compile(`
		class Point {
			init(x) { this.x = x; }
			get() { return this.x; }
		}
	`, h)
	require.Empty(t, errs)

	ops := opcodes(fn.Chunk)
	assert.Contains(t, ops, value.OpClass)
	assert.Contains(t, ops, value.OpMethod)
}

func TestCompileInheritanceEmitsInherit(t *testing.T) {
	h := value.NewHeap()
	fn, errs := compiler.Compile(`
		class A { greet() { print "A"; } }
		class B < A { greet() { super.greet(); } }
	`, h)
	require.Empty(t, errs)

	ops := opcodes(fn.Chunk)
	assert.Contains(t, ops, value.OpInherit)

	// super.greet() is compiled into the method's own chunk, which the
	// script chunk holds as a function constant.
	var methodOps []value.Opcode
	for _, c := range fn.Chunk.Constants {
		if f, ok := c.AsObj().(*value.ObjFunction); ok {
			methodOps = append(methodOps, opcodes(f.Chunk)...)
		}
	}
	assert.Contains(t, methodOps, value.OpSuperInvoke)
}

func TestCompileErrorInvalidAssignmentTarget(t *testing.T) {
	h := value.NewHeap()
	_, errs := compiler.Compile(`1 + 2 = 3;`, h)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "Invalid assignment target.")
}

func TestCompileErrorReturnFromTopLevel(t *testing.T) {
	h := value.NewHeap()
	_, errs := compiler.Compile(`return 1;`, h)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "Can't return from top-level code.")
}

func TestCompileSelfReferencingLocalInitializerError(t *testing.T) {
	h := value.NewHeap()
	_, errs := compiler.Compile(`{ var a = a; }`, h)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "Can't read local variable in its own initializer.")
}

func TestEndScopeRestoresLocalCount(t *testing.T) {
	h := value.NewHeap()
	fn, errs := compiler.Compile(`
		{
			var a = 1;
			{
				var b = 2;
			}
			print a;
		}
	`, h)
	require.Empty(t, errs)
	ops := opcodes(fn.Chunk)
	// inner scope pops b, outer scope later pops a.
	popCount := 0
	for _, op := range ops {
		if op == value.OpPop {
			popCount++
		}
	}
	assert.Equal(t, 2, popCount)
}
