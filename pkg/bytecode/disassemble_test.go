package bytecode_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kristofer/loxvm/pkg/bytecode"
	"github.com/kristofer/loxvm/pkg/value"
)

func TestDisassembleRoundTrip(t *testing.T) {
	chunk := value.NewChunk()
	constIdx, ok := chunk.AddConstant(value.Number(1.2))
	assert.True(t, ok)
	chunk.Write(value.OpConstant, constIdx, 0, 1)
	chunk.Write(value.OpNegate, 0, 0, 1)
	chunk.Write(value.OpReturn, 0, 0, 2)

	out := bytecode.Disassemble(chunk, "test chunk")

	assert.True(t, strings.HasPrefix(out, "== test chunk ==\n"))
	assert.Contains(t, out, "OP_CONSTANT")
	assert.Contains(t, out, "1.2")
	assert.Contains(t, out, "OP_NEGATE")
	assert.Contains(t, out, "OP_RETURN")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 4) // header + 3 instructions
}

func TestDisassembleJumpShowsTarget(t *testing.T) {
	chunk := value.NewChunk()
	jumpIdx := chunk.Write(value.OpJumpIfFalse, 0, 0, 1)
	chunk.Write(value.OpPop, 0, 0, 1)
	assert.True(t, chunk.PatchJump(jumpIdx))
	chunk.Write(value.OpReturn, 0, 0, 1)

	out := bytecode.Disassemble(chunk, "jump")
	assert.Contains(t, out, "OP_JUMP_IF_FALSE")
	assert.Contains(t, out, "-> 2")
}

func TestInstructionSingleLine(t *testing.T) {
	chunk := value.NewChunk()
	chunk.Write(value.OpReturn, 0, 0, 1)
	line := bytecode.Instruction(chunk, 0)
	assert.Contains(t, line, "OP_RETURN")
}
