package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/loxvm/pkg/value"
	"github.com/kristofer/loxvm/pkg/vm"
)

func run(t *testing.T, source string) (stdout, stderr string, result vm.InterpretResult) {
	t.Helper()
	heap := value.NewHeap()
	var out, errBuf bytes.Buffer
	machine := vm.New(heap, &out, &errBuf)
	res, _ := machine.Interpret(source)
	return out.String(), errBuf.String(), res
}

func TestArithmeticAndPrint(t *testing.T) {
	out, _, res := run(t, `print 1 + 2 * 3 - 4 / 2;`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "5\n", out)
}

func TestStringConcatenation(t *testing.T) {
	out, _, res := run(t, `print "foo" + "bar";`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "foobar\n", out)
}

func TestRecursiveFibonacci(t *testing.T) {
	out, stderr, res := run(t, `
		fun fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`)
	require.Empty(t, stderr)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "55\n", out)
}

func TestClosureCapturesUpvalue(t *testing.T) {
	out, stderr, res := run(t, `
		fun makeCounter() {
			var i = 0;
			fun counter() {
				i = i + 1;
				return i;
			}
			return counter;
		}
		var c = makeCounter();
		print c();
		print c();
		print c();
	`)
	require.Empty(t, stderr)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestClassWithInitAndMethod(t *testing.T) {
	out, stderr, res := run(t, `
		class Point {
			init(x, y) {
				this.x = x;
				this.y = y;
			}
			sum() {
				return this.x + this.y;
			}
		}
		var p = Point(3, 4);
		print p.sum();
	`)
	require.Empty(t, stderr)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "7\n", out)
}

func TestInheritanceAndSuper(t *testing.T) {
	out, stderr, res := run(t, `
		class Animal {
			speak() {
				print "...";
			}
		}
		class Dog < Animal {
			speak() {
				super.speak();
				print "Woof";
			}
		}
		Dog().speak();
	`)
	require.Empty(t, stderr)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "...\nWoof\n", out)
}

func TestRuntimeErrorOnTypeMismatch(t *testing.T) {
	_, stderr, res := run(t, `print 1 + "two";`)
	assert.Equal(t, vm.InterpretRuntimeError, res)
	assert.Contains(t, stderr, "Operands must be two numbers or two strings.")
}

func TestRuntimeErrorOnUndefinedVariable(t *testing.T) {
	_, stderr, res := run(t, `print undefinedThing;`)
	assert.Equal(t, vm.InterpretRuntimeError, res)
	assert.Contains(t, stderr, "Undefined variable 'undefinedThing'.")
}

func TestCompileErrorReportsAndStopsExecution(t *testing.T) {
	out, stderr, res := run(t, `print 1 +;`)
	assert.Equal(t, vm.InterpretCompileError, res)
	assert.Empty(t, out)
	assert.NotEmpty(t, stderr)
}

func TestStackEmptyAfterTopLevelReturn(t *testing.T) {
	heap := value.NewHeap()
	var out, errBuf bytes.Buffer
	machine := vm.New(heap, &out, &errBuf)

	res, _ := machine.Interpret(`var a = 1; var b = 2; print a + b;`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "3\n", out.String())

	// Running a second, unrelated program on the same VM must see a
	// clean stack — nothing left over from the first Interpret call.
	res, _ = machine.Interpret(`print "second run";`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.True(t, strings.Contains(out.String(), "second run"))
}

func TestGlobalsPersistAcrossInterpretCalls(t *testing.T) {
	heap := value.NewHeap()
	var out, errBuf bytes.Buffer
	machine := vm.New(heap, &out, &errBuf)

	res, _ := machine.Interpret(`var counter = 0;`)
	require.Equal(t, vm.InterpretOK, res)

	res, _ = machine.Interpret(`counter = counter + 1; print counter;`)
	require.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "1\n", out.String())
}

func TestStringInterningPointerEquality(t *testing.T) {
	heap := value.NewHeap()
	a := heap.InternString("hello")
	b := heap.InternString("hello")
	assert.Same(t, a, b)
}

// TestGCReachabilityKeepsLiveValues forces a full collection before every
// single allocation (StressGC) while the compiler and VM both hold live
// roots mid-run — the global "boxes", the loop-local "throwaway", and the
// freshly interned identifier/constant strings the compiler is still
// emitting into. It must survive Heap.allocate's collect-before-link
// ordering: a just-born object is never swept by the very collection its
// own allocation triggers.
func TestGCReachabilityKeepsLiveValues(t *testing.T) {
	heap := value.NewHeap()
	heap.StressGC = true
	var out, errBuf bytes.Buffer
	machine := vm.New(heap, &out, &errBuf)

	res, _ := machine.Interpret(`
		class Box {
			init(v) { this.v = v; }
		}
		var boxes = Box("first");
		var i = 0;
		while (i < 50) {
			var throwaway = Box(i);
			i = i + 1;
		}
		print boxes.v;
	`)
	require.Empty(t, errBuf.String())
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "first\n", out.String())
}

func TestNativeClockReturnsNumber(t *testing.T) {
	out, stderr, res := run(t, `
		var t = clock();
		print t >= 0;
	`)
	require.Empty(t, stderr)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "true\n", out)
}
