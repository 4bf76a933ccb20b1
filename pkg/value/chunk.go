package value

// maxConstants is the hard cap on a Chunk's constant pool (spec.md §3:
// "A Function's constants pool holds at most 256 entries"). The teacher
// indexes its constant pool with a plain int and never enforces a cap;
// we add the cap here because the compiler reports it as a compile
// error ("Too many constants in one chunk.") rather than silently
// overflowing an 8-bit index the way the byte-oriented original does.
const maxConstants = 256

// maxJumpDistance bounds a forward/backward branch. spec.md's §4.1
// describes this as a 16-bit byte-offset limit; this module measures
// jumps in instruction-index units instead (SPEC_FULL.md §3.1), so the
// same conceptual ceiling is kept as a constant here rather than
// recomputed from an operand's bit width.
const maxJumpDistance = 1<<16 - 1

// UpvalueRef is one entry of an OP_CLOSURE instruction's variable-length
// upvalue descriptor list: spec.md §6's "CLOSURE funK, then
// upvalue_count pairs of (is_local_u8, index_u8)", represented here as a
// Go slice on the Instruction rather than literal trailing bytes.
type UpvalueRef struct {
	IsLocal bool
	Index   int
}

// Instruction is one decoded bytecode instruction. A is the opcode's
// primary operand (a constant/local/upvalue/global index, a jump
// distance, or an argument count); B is used only by OP_INVOKE and
// OP_SUPER_INVOKE, whose operand packs both a name-constant index and an
// argument count (the teacher's OpSend already packs exactly this pair
// into one int operand — this just keeps the two fields distinct instead
// of bit-shifting them together, which is simpler in a language without
// a byte-oriented instruction stream to economize on).
type Instruction struct {
	Op       Opcode
	A        int
	B        int
	Upvalues []UpvalueRef // populated only when Op == OpClosure
}

// Chunk is a compiled unit: a sequence of instructions, a parallel array
// of source line numbers (spec.md §3: "lines.length == code.length"),
// and a pooled array of constants referenced by index from OP_CONSTANT
// and the global/property/method-name opcodes.
type Chunk struct {
	Code      []Instruction
	Lines     []int
	Constants []Value
}

// NewChunk returns an empty Chunk.
func NewChunk() *Chunk {
	return &Chunk{}
}

// Write appends an instruction at the given source line and returns its
// index, for later patching (jump targets, loop back-edges).
func (c *Chunk) Write(op Opcode, a, b int, line int) int {
	c.Code = append(c.Code, Instruction{Op: op, A: a, B: b})
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

// WriteClosure appends an OP_CLOSURE instruction carrying its upvalue
// descriptor list.
func (c *Chunk) WriteClosure(funcConstant int, upvalues []UpvalueRef, line int) int {
	c.Code = append(c.Code, Instruction{Op: OpClosure, A: funcConstant, Upvalues: upvalues})
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

// AddConstant appends v to the constant pool and returns its index, or
// ok=false if the pool is already at capacity (spec.md §3/§4.1: "Too
// many constants in one chunk.").
func (c *Chunk) AddConstant(v Value) (index int, ok bool) {
	if len(c.Constants) >= maxConstants {
		return 0, false
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1, true
}

// PatchJump sets the operand of the jump instruction at index so that it
// lands on the current end of the chunk (the next instruction to be
// emitted). Returns ok=false if the resulting distance overflows
// maxJumpDistance ("Too much code to jump over.").
func (c *Chunk) PatchJump(index int) (ok bool) {
	distance := len(c.Code) - index - 1
	if distance > maxJumpDistance {
		return false
	}
	c.Code[index].A = distance
	return true
}

// EmitLoop appends an OP_LOOP instruction branching back to loopStart.
// Returns ok=false if the backward distance overflows maxJumpDistance
// ("Loop body too large.").
func (c *Chunk) EmitLoop(loopStart int, line int) (ok bool) {
	distance := len(c.Code) - loopStart + 1
	if distance > maxJumpDistance {
		return false
	}
	c.Write(OpLoop, distance, 0, line)
	return true
}
