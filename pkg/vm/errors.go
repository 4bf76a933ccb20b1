package vm

import "errors"

// InterpretResult reports how an Interpret call finished, mirroring
// spec.md §4.2's Interpret_result / exit-code mapping consumed by the
// CLI host (spec.md §6).
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// ErrCompile and ErrRuntime are the two error sentinels Interpret
// returns alongside InterpretCompileError/InterpretRuntimeError. The
// host program picks its exit code from the InterpretResult (spec.md
// §6); the diagnostic text itself has already been written to stderr.
var (
	ErrCompile = errors.New("compile error")
	ErrRuntime = errors.New("runtime error")
)
