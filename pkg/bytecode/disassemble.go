// Package bytecode renders a compiled Chunk back into human-readable
// text. It has no runtime role: the VM executes value.Chunk directly,
// and nothing here is read back in (spec.md: "no serialized chunk
// format"). It exists for the same reason clox's debug.c does —
// debugging a compiler and a VM that agree with each other. Its round-trip
// test builds a small chunk by hand, disassembles it, and checks that
// the header, each opcode name and the constant appear, one line per
// instruction.
package bytecode

import (
	"fmt"
	"strings"

	"github.com/kristofer/loxvm/pkg/value"
)

// Disassemble renders every instruction of chunk under a "== name =="
// header, the same banner clox's disassemble_chunk prints.
func Disassemble(chunk *value.Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); offset++ {
		writeInstruction(&b, chunk, offset)
	}
	return b.String()
}

// Instruction renders a single instruction at offset, without the
// chunk-level header. Used by the VM's optional trace-execution mode to
// print the instruction about to run.
func Instruction(chunk *value.Chunk, offset int) string {
	var b strings.Builder
	writeInstruction(&b, chunk, offset)
	return b.String()
}

func writeInstruction(b *strings.Builder, chunk *value.Chunk, offset int) {
	fmt.Fprintf(b, "%04d ", offset)
	if offset > 0 && chunk.Lines[offset] == chunk.Lines[offset-1] {
		b.WriteString("   | ")
	} else {
		fmt.Fprintf(b, "%4d ", chunk.Lines[offset])
	}

	inst := chunk.Code[offset]
	switch inst.Op {
	case value.OpConstant, value.OpGetGlobal, value.OpDefineGlobal,
		value.OpSetGlobal, value.OpGetProperty, value.OpSetProperty,
		value.OpClass, value.OpMethod:
		constantInstruction(b, inst.Op, chunk, inst.A)
	case value.OpGetLocal, value.OpSetLocal, value.OpGetUpvalue,
		value.OpSetUpvalue, value.OpCall:
		byteInstruction(b, inst.Op, inst.A)
	case value.OpJump, value.OpJumpIfFalse:
		jumpInstruction(b, inst.Op, 1, offset, inst.A)
	case value.OpLoop:
		jumpInstruction(b, inst.Op, -1, offset, inst.A)
	case value.OpInvoke, value.OpSuperInvoke:
		invokeInstruction(b, inst.Op, chunk, inst.A, inst.B)
	case value.OpGetSuper:
		constantInstruction(b, inst.Op, chunk, inst.A)
	case value.OpClosure:
		closureInstruction(b, chunk, inst)
	default:
		simpleInstruction(b, inst.Op)
	}
}

func simpleInstruction(b *strings.Builder, op value.Opcode) {
	fmt.Fprintf(b, "%s\n", op)
}

func byteInstruction(b *strings.Builder, op value.Opcode, slot int) {
	fmt.Fprintf(b, "%-16s %4d\n", op, slot)
}

func jumpInstruction(b *strings.Builder, op value.Opcode, sign, offset, distance int) {
	target := offset + 1 + sign*distance
	fmt.Fprintf(b, "%-16s %4d -> %d\n", op, offset, target)
}

func constantInstruction(b *strings.Builder, op value.Opcode, chunk *value.Chunk, constant int) {
	fmt.Fprintf(b, "%-16s %4d '%s'\n", op, constant, constantText(chunk, constant))
}

func invokeInstruction(b *strings.Builder, op value.Opcode, chunk *value.Chunk, nameConstant, argCount int) {
	fmt.Fprintf(b, "%-16s (%d args) %4d '%s'\n", op, argCount, nameConstant, constantText(chunk, nameConstant))
}

func closureInstruction(b *strings.Builder, chunk *value.Chunk, inst value.Instruction) {
	fmt.Fprintf(b, "%-16s %4d '%s'\n", inst.Op, inst.A, constantText(chunk, inst.A))
	for _, uv := range inst.Upvalues {
		kind := "upvalue"
		if uv.IsLocal {
			kind = "local"
		}
		fmt.Fprintf(b, "      |                     %s %d\n", kind, uv.Index)
	}
}

func constantText(chunk *value.Chunk, index int) string {
	if index < 0 || index >= len(chunk.Constants) {
		return "?"
	}
	return chunk.Constants[index].String()
}
