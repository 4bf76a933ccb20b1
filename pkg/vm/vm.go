// Package vm implements the stack-based bytecode interpreter: the value
// stack, the call-frame stack, method and property dispatch, upvalue
// capture/closing, and the native-function environment (spec.md §4.2).
// Its dispatch loop keeps the shape of the teacher's pkg/vm (one switch
// over decoded instructions, push/pop helpers), extended with the call
// frames and upvalues the teacher's flat locals array lacks — see
// DESIGN.md.
package vm

import (
	"fmt"
	"io"
	"time"

	"github.com/kristofer/loxvm/pkg/bytecode"
	"github.com/kristofer/loxvm/pkg/compiler"
	"github.com/kristofer/loxvm/pkg/value"
)

const framesMax = 64
const stackMax = framesMax * 256

type callFrame struct {
	closure   *value.ObjClosure
	ip        int
	slotsBase int
}

// VM is a single-threaded, non-reentrant bytecode interpreter (spec.md
// §5: "strictly single-threaded and cooperative"). Its globals table,
// string intern table, and managed-object list all live on the Heap it
// was constructed with; a VM owns exactly one Heap for its lifetime.
type VM struct {
	heap  *value.Heap
	stack []value.Value
	top   int

	frames     []callFrame
	frameCount int

	openUpvalues *value.ObjUpvalue

	initString *value.ObjString
	startTime  time.Time

	stdout io.Writer
	stderr io.Writer

	// Trace, when set, prints each instruction before it executes —
	// the same role the teacher's debugger.go serves, built on top of
	// pkg/bytecode's disassembler instead of a standalone stepper.
	Trace bool
}

// New constructs a VM bound to heap, writing program output to stdout
// and diagnostics to stderr. The returned VM registers itself as a GC
// root source for heap's entire lifetime.
func New(heap *value.Heap, stdout, stderr io.Writer) *VM {
	vm := &VM{
		heap:      heap,
		stack:     make([]value.Value, stackMax),
		frames:    make([]callFrame, framesMax),
		startTime: time.Now(),
		stdout:    stdout,
		stderr:    stderr,
	}
	vm.initString = heap.InternString("init")
	heap.AddRootMarker(vm)
	vm.defineNatives()
	return vm
}

// MarkRoots marks every Value reachable directly from running state: the
// value stack, each frame's closure, every open upvalue, and the
// interned "init" selector (spec.md §4.3 step 1). The globals table is
// marked separately by Heap.CollectGarbage, since the Heap owns it.
func (vm *VM) MarkRoots(h *value.Heap) {
	for i := 0; i < vm.top; i++ {
		h.MarkValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		h.MarkObject(vm.frames[i].closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.NextOpen {
		h.MarkObject(uv)
	}
	h.MarkObject(vm.initString)
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.top] = v
	vm.top++
}

func (vm *VM) pop() value.Value {
	vm.top--
	return vm.stack[vm.top]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.top-1-distance]
}

func (vm *VM) resetStack() {
	vm.top = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

// Interpret compiles and runs source to completion, writing print
// output to stdout and any diagnostics to stderr. The globals and
// intern tables persist across calls on the same VM, the way a REPL's
// single long-lived VM expects (spec.md §6).
func (vm *VM) Interpret(source string) (InterpretResult, error) {
	fn, errs := compiler.Compile(source, vm.heap)
	if fn == nil {
		for _, e := range errs {
			fmt.Fprintln(vm.stderr, e)
		}
		return InterpretCompileError, ErrCompile
	}

	vm.push(value.FromObj(fn))
	closure := vm.heap.NewClosure(fn)
	vm.pop()
	vm.push(value.FromObj(closure))
	vm.callValue(value.FromObj(closure), 0)

	return vm.run()
}

func (vm *VM) run() (InterpretResult, error) {
	frame := &vm.frames[vm.frameCount-1]

	for {
		if vm.Trace {
			vm.traceInstruction(frame)
		}

		inst := frame.closure.Function.Chunk.Code[frame.ip]
		frame.ip++
		constants := frame.closure.Function.Chunk.Constants

		switch inst.Op {
		case value.OpConstant:
			vm.push(constants[inst.A])
		case value.OpNil:
			vm.push(value.Nil())
		case value.OpTrue:
			vm.push(value.Bool(true))
		case value.OpFalse:
			vm.push(value.Bool(false))
		case value.OpPop:
			vm.pop()

		case value.OpGetLocal:
			vm.push(vm.stack[frame.slotsBase+inst.A])
		case value.OpSetLocal:
			vm.stack[frame.slotsBase+inst.A] = vm.peek(0)

		case value.OpGetUpvalue:
			vm.push(*frame.closure.Upvalues[inst.A].Location)
		case value.OpSetUpvalue:
			*frame.closure.Upvalues[inst.A].Location = vm.peek(0)
		case value.OpCloseUpvalue:
			vm.closeUpvalues(vm.top - 1)
			vm.pop()

		case value.OpGetGlobal:
			name := constants[inst.A].AsString()
			v, ok := vm.heap.Globals.Get(name)
			if !ok {
				return vm.runtimeError(frame, "Undefined variable '%s'.", name.Chars)
			}
			vm.push(v)
		case value.OpDefineGlobal:
			name := constants[inst.A].AsString()
			vm.heap.Globals.Set(name, vm.peek(0))
			vm.pop()
		case value.OpSetGlobal:
			name := constants[inst.A].AsString()
			if _, ok := vm.heap.Globals.Get(name); !ok {
				return vm.runtimeError(frame, "Undefined variable '%s'.", name.Chars)
			}
			vm.heap.Globals.Set(name, vm.peek(0))

		case value.OpGetProperty:
			if !vm.peek(0).IsObjType(value.ObjTypeInstance) {
				return vm.runtimeError(frame, "Only instances have properties.")
			}
			instance := vm.peek(0).AsObj().(*value.ObjInstance)
			name := constants[inst.A].AsString()
			if v, ok := instance.Fields.Get(name); ok {
				vm.pop()
				vm.push(v)
			} else if res, err, ok := vm.bindMethod(frame, instance.Class, name); !ok {
				return res, err
			}
		case value.OpSetProperty:
			if !vm.peek(1).IsObjType(value.ObjTypeInstance) {
				return vm.runtimeError(frame, "Only instances have fields.")
			}
			instance := vm.peek(1).AsObj().(*value.ObjInstance)
			name := constants[inst.A].AsString()
			instance.Fields.Set(name, vm.peek(0))
			v := vm.pop()
			vm.pop()
			vm.push(v)
		case value.OpGetSuper:
			name := constants[inst.A].AsString()
			superclass := vm.pop().AsObj().(*value.ObjClass)
			if res, err, ok := vm.bindMethod(frame, superclass, name); !ok {
				return res, err
			}

		case value.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))
		case value.OpGreater:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				return vm.runtimeError(frame, "Operands must be numbers.")
			}
			b := vm.pop().AsNumber()
			a := vm.pop().AsNumber()
			vm.push(value.Bool(a > b))
		case value.OpLess:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				return vm.runtimeError(frame, "Operands must be numbers.")
			}
			b := vm.pop().AsNumber()
			a := vm.pop().AsNumber()
			vm.push(value.Bool(a < b))

		case value.OpAdd:
			a, b := vm.peek(1), vm.peek(0)
			switch {
			case a.IsNumber() && b.IsNumber():
				vm.pop()
				vm.pop()
				vm.push(value.Number(a.AsNumber() + b.AsNumber()))
			case a.IsString() && b.IsString():
				// Operands stay rooted on the stack until the
				// concatenated string is interned (spec.md §4.2: "GC-safe
				// ... operands remain on the stack while the result
				// buffer is allocated").
				result := vm.heap.InternString(a.AsString().Chars + b.AsString().Chars)
				vm.pop()
				vm.pop()
				vm.push(value.FromObj(result))
			default:
				return vm.runtimeError(frame, "Operands must be two numbers or two strings.")
			}
		case value.OpSubtract:
			if res, err, ok := vm.numericBinary(frame, func(a, b float64) float64 { return a - b }); !ok {
				return res, err
			}
		case value.OpMultiply:
			if res, err, ok := vm.numericBinary(frame, func(a, b float64) float64 { return a * b }); !ok {
				return res, err
			}
		case value.OpDivide:
			if res, err, ok := vm.numericBinary(frame, func(a, b float64) float64 { return a / b }); !ok {
				return res, err
			}
		case value.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError(frame, "Operand must be a number.")
			}
			vm.push(value.Number(-vm.pop().AsNumber()))
		case value.OpNot:
			vm.push(value.Bool(vm.pop().IsFalsey()))

		case value.OpPrint:
			fmt.Fprintln(vm.stdout, vm.pop().String())

		case value.OpJump:
			frame.ip += inst.A
		case value.OpJumpIfFalse:
			if vm.peek(0).IsFalsey() {
				frame.ip += inst.A
			}
		case value.OpLoop:
			frame.ip -= inst.A

		case value.OpCall:
			argCount := inst.A
			if res, err, ok := vm.callValueChecked(frame, vm.peek(argCount), argCount); !ok {
				return res, err
			}
			frame = &vm.frames[vm.frameCount-1]

		case value.OpInvoke:
			name := constants[inst.A].AsString()
			argCount := inst.B
			if res, err, ok := vm.invoke(frame, name, argCount); !ok {
				return res, err
			}
			frame = &vm.frames[vm.frameCount-1]

		case value.OpSuperInvoke:
			name := constants[inst.A].AsString()
			argCount := inst.B
			superclass := vm.pop().AsObj().(*value.ObjClass)
			if res, err, ok := vm.invokeFromClass(frame, superclass, name, argCount); !ok {
				return res, err
			}
			frame = &vm.frames[vm.frameCount-1]

		case value.OpClosure:
			fn := constants[inst.A].AsObj().(*value.ObjFunction)
			closure := vm.heap.NewClosure(fn)
			// Pushed before capturing, so a collection triggered by
			// NewUpvalue finds the new closure on the stack.
			vm.push(value.FromObj(closure))
			for i, uv := range inst.Upvalues {
				if uv.IsLocal {
					closure.Upvalues[i] = vm.captureUpvalue(frame.slotsBase + uv.Index)
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[uv.Index]
				}
			}

		case value.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.slotsBase)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return InterpretOK, nil
			}
			vm.top = frame.slotsBase
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		case value.OpClass:
			name := constants[inst.A].AsString()
			vm.push(value.FromObj(vm.heap.NewClass(name)))

		case value.OpInherit:
			superclassVal := vm.peek(1)
			if !superclassVal.IsObjType(value.ObjTypeClass) {
				return vm.runtimeError(frame, "Superclass must be a class.")
			}
			subclass := vm.peek(0).AsObj().(*value.ObjClass)
			subclass.Methods.AddAll(superclassVal.AsObj().(*value.ObjClass).Methods)
			vm.pop()

		case value.OpMethod:
			name := constants[inst.A].AsString()
			method := vm.peek(0)
			class := vm.peek(1).AsObj().(*value.ObjClass)
			class.Methods.Set(name, method)
			vm.pop()
		}
	}
}

// traceInstruction prints the current stack contents and the next
// instruction to be executed, in the same shape the teacher's debugger
// uses, reusing pkg/bytecode's disassembler instead of duplicating its
// formatting here.
func (vm *VM) traceInstruction(frame *callFrame) {
	fmt.Fprint(vm.stderr, "          ")
	for i := 0; i < vm.top; i++ {
		fmt.Fprintf(vm.stderr, "[ %s ]", vm.stack[i].String())
	}
	fmt.Fprintln(vm.stderr)
	fmt.Fprintln(vm.stderr, bytecode.Instruction(frame.closure.Function.Chunk, frame.ip))
}

func (vm *VM) numericBinary(frame *callFrame, op func(a, b float64) float64) (InterpretResult, error, bool) {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		res, err := vm.runtimeError(frame, "Operands must be numbers.")
		return res, err, false
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	vm.push(value.Number(op(a, b)))
	return InterpretOK, nil, true
}

// callValueChecked adapts callValue's bool-success return into the
// (result, error, ok) triple the dispatch loop threads through every
// opcode that can fail mid-instruction.
func (vm *VM) callValueChecked(frame *callFrame, callee value.Value, argCount int) (InterpretResult, error, bool) {
	if vm.callValue(callee, argCount) {
		return InterpretOK, nil, true
	}
	return vm.runtimeErrorResult(frame)
}

// callValue dispatches a CALL/OP_CALL target by object type (spec.md
// §4.2's call_value). It reports failure via runtimeError and returns
// false rather than a (result, error) pair so it can also serve the
// initializer-call path inside callValue itself.
func (vm *VM) callValue(callee value.Value, argCount int) bool {
	if callee.IsObj() {
		switch obj := callee.AsObj().(type) {
		case *value.ObjClosure:
			return vm.call(obj, argCount)
		case *value.ObjNative:
			args := vm.stack[vm.top-argCount : vm.top]
			result, err := obj.Fn(args)
			if err != nil {
				vm.runtimeErrorMessage(err.Error())
				return false
			}
			vm.top -= argCount + 1
			vm.push(result)
			return true
		case *value.ObjClass:
			instance := vm.heap.NewInstance(obj)
			vm.stack[vm.top-argCount-1] = value.FromObj(instance)
			if initializer, ok := obj.Methods.Get(vm.initString); ok {
				return vm.call(initializer.AsObj().(*value.ObjClosure), argCount)
			} else if argCount != 0 {
				vm.runtimeErrorMessage(fmt.Sprintf("Expected 0 arguments but got %d.", argCount))
				return false
			}
			return true
		case *value.ObjBoundMethod:
			vm.stack[vm.top-argCount-1] = obj.Receiver
			return vm.call(obj.Method, argCount)
		}
	}
	vm.runtimeErrorMessage("Can only call functions and classes.")
	return false
}

func (vm *VM) call(closure *value.ObjClosure, argCount int) bool {
	if argCount != closure.Function.Arity {
		vm.runtimeErrorMessage(fmt.Sprintf("Expected %d arguments but got %d.", closure.Function.Arity, argCount))
		return false
	}
	if vm.frameCount == framesMax {
		vm.runtimeErrorMessage("Stack overflow.")
		return false
	}
	frame := &vm.frames[vm.frameCount]
	frame.closure = closure
	frame.ip = 0
	frame.slotsBase = vm.top - argCount - 1
	vm.frameCount++
	return true
}

func (vm *VM) invoke(frame *callFrame, name *value.ObjString, argCount int) (InterpretResult, error, bool) {
	receiver := vm.peek(argCount)
	if !receiver.IsObjType(value.ObjTypeInstance) {
		return vm.runtimeErrorTriple(frame, "Only instances have methods.")
	}
	instance := receiver.AsObj().(*value.ObjInstance)
	if field, ok := instance.Fields.Get(name); ok {
		vm.stack[vm.top-argCount-1] = field
		return vm.callValueChecked(frame, field, argCount)
	}
	return vm.invokeFromClass(frame, instance.Class, name, argCount)
}

func (vm *VM) invokeFromClass(frame *callFrame, class *value.ObjClass, name *value.ObjString, argCount int) (InterpretResult, error, bool) {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeErrorTriple(frame, "Undefined property '%s'.", name.Chars)
	}
	if vm.call(method.AsObj().(*value.ObjClosure), argCount) {
		return InterpretOK, nil, true
	}
	return vm.runtimeErrorResult(frame)
}

func (vm *VM) bindMethod(frame *callFrame, class *value.ObjClass, name *value.ObjString) (InterpretResult, error, bool) {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeErrorTriple(frame, "Undefined property '%s'.", name.Chars)
	}
	bound := vm.heap.NewBoundMethod(vm.peek(0), method.AsObj().(*value.ObjClosure))
	vm.pop()
	vm.push(value.FromObj(bound))
	return InterpretOK, nil, true
}

// captureUpvalue implements spec.md §4.2's capture_upvalue: scan the
// open list (kept sorted by decreasing stack index) for one already
// pointing at slotIndex; otherwise splice a new one in, in order.
func (vm *VM) captureUpvalue(slotIndex int) *value.ObjUpvalue {
	var prev *value.ObjUpvalue
	curr := vm.openUpvalues
	for curr != nil && curr.Slot > slotIndex {
		prev = curr
		curr = curr.NextOpen
	}
	if curr != nil && curr.Slot == slotIndex {
		return curr
	}

	created := vm.heap.NewUpvalue(&vm.stack[slotIndex])
	created.Slot = slotIndex
	created.NextOpen = curr
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// closeUpvalues implements spec.md §4.2's close_upvalues: every open
// upvalue at or above last is closed (its referent copied out of the
// stack) and unlinked.
func (vm *VM) closeUpvalues(last int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Slot >= last {
		uv := vm.openUpvalues
		uv.Close()
		vm.openUpvalues = uv.NextOpen
	}
}

// runtimeError formats msg, reports it the way Interpret's caller
// expects, and returns the (result, error) pair every dispatch case
// propagates upward.
func (vm *VM) runtimeError(frame *callFrame, format string, a ...interface{}) (InterpretResult, error) {
	vm.runtimeErrorMessage(fmt.Sprintf(format, a...))
	return InterpretRuntimeError, ErrRuntime
}

func (vm *VM) runtimeErrorTriple(frame *callFrame, format string, a ...interface{}) (InterpretResult, error, bool) {
	res, err := vm.runtimeError(frame, format, a...)
	return res, err, false
}

func (vm *VM) runtimeErrorResult(frame *callFrame) (InterpretResult, error, bool) {
	return InterpretRuntimeError, ErrRuntime, false
}

// runtimeErrorMessage prints msg and a full stack trace (innermost frame
// first), then resets the stack (spec.md §4.2/§7).
func (vm *VM) runtimeErrorMessage(msg string) {
	fmt.Fprintln(vm.stderr, msg)

	for i := vm.frameCount - 1; i >= 0; i-- {
		f := &vm.frames[i]
		fn := f.closure.Function
		line := fn.Chunk.Lines[f.ip-1]
		if fn.Name == nil {
			fmt.Fprintf(vm.stderr, "[line %d] in script\n", line)
		} else {
			fmt.Fprintf(vm.stderr, "[line %d] in %s()\n", line, fn.Name.Chars)
		}
	}

	vm.resetStack()
}
