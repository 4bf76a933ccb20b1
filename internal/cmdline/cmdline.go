// Package cmdline implements the testable core of the loxvm command line:
// argument parsing, the REPL, and the file runner. cmd/loxvm's main.go is
// a thin wrapper around Cmd.Main, the same split
// _examples/mna-nenuphar/internal/maincmd uses so that exit codes and
// REPL/file-run behavior can be exercised through in-memory mainer.Stdio
// buffers instead of only by hand (see DESIGN.md).
package cmdline

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mna/mainer"

	"github.com/kristofer/loxvm/pkg/value"
	"github.com/kristofer/loxvm/pkg/vm"
)

const binName = "loxvm"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<script>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<script>]
       %[1]s -h|--help
       %[1]s -v|--version

A bytecode virtual machine for a small dynamically-typed, class-based
scripting language.

With no <script>, %[1]s starts an interactive REPL. With a <script>, it
compiles and runs that file.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --trace                   Print each executed instruction and the
                                 value stack before it runs.
       --stress-gc               Collect garbage before every allocation,
                                 to shake out rooting bugs.
       --log-gc                  Log a line for each garbage collection.
`, binName)
)

// Exit codes follow the sysexits.h convention spec.md §6 specifies:
// success, usage error, compile (data) error, runtime (software) error,
// I/O error. mainer.ExitCode is a plain integer type, so these compose
// with mainer.Success/mainer.Failure without needing our own enum.
const (
	ExitUsage    mainer.ExitCode = 64
	ExitDataErr  mainer.ExitCode = 65
	ExitSoftware mainer.ExitCode = 70
	ExitIOErr    mainer.ExitCode = 74
)

// Cmd is the parsed command line plus its dependencies. Validate/Main
// mirror the shape mainer.Parser expects (SetArgs/SetFlags, Validate,
// and a Main(args, stdio) entry point).
type Cmd struct {
	BuildVersion string

	Help     bool `flag:"h,help"`
	Version  bool `flag:"v,version"`
	Trace    bool `flag:"trace"`
	StressGC bool `flag:"stress-gc"`
	LogGC    bool `flag:"log-gc"`

	args []string
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return errors.New("at most one script path may be given")
	}
	return nil
}

// Main runs the CLI to completion, returning the exit code the process
// should terminate with.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return ExitUsage
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s\n", binName, c.BuildVersion)
		return mainer.Success
	}

	heap := value.NewHeap()
	heap.StressGC = c.StressGC
	heap.LogGC = c.LogGC
	heap.SetLogger(func(line string) { fmt.Fprintln(stdio.Stderr, line) })

	machine := vm.New(heap, stdio.Stdout, stdio.Stderr)
	machine.Trace = c.Trace

	if len(c.args) == 1 {
		return runFile(machine, c.args[0], stdio)
	}
	return runREPL(machine, stdio)
}

// runFile reads path, then compiles and runs it on machine, mapping the
// result to one of the exit codes spec.md §6 specifies.
func runFile(machine *vm.VM, path string, stdio mainer.Stdio) mainer.ExitCode {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "can't read file %q: %s\n", path, err)
		return ExitIOErr
	}

	result, err := machine.Interpret(string(source))
	return exitCodeFor(result, err)
}

func exitCodeFor(result vm.InterpretResult, err error) mainer.ExitCode {
	switch result {
	case vm.InterpretCompileError:
		return ExitDataErr
	case vm.InterpretRuntimeError:
		return ExitSoftware
	default:
		return mainer.Success
	}
}

// runREPL reads statements from stdio.Stdin one at a time, flushing each
// to machine once parens and braces balance — the teacher's REPL flushes
// on a trailing Smalltalk period; this language terminates statements
// with `;` inside balanced `()`/`{}`, so balance is the better signal
// (SPEC_FULL.md §6.1).
func runREPL(machine *vm.VM, stdio mainer.Stdio) mainer.ExitCode {
	interactive := isatty.IsTerminal(os.Stdin.Fd())
	if interactive {
		fmt.Fprintf(stdio.Stdout, "%s\n", binName)
	}

	scanner := bufio.NewScanner(stdio.Stdin)
	var buf strings.Builder
	depth := 0

	prompt := func() {
		if !interactive {
			return
		}
		if buf.Len() == 0 {
			fmt.Fprint(stdio.Stdout, "> ")
		} else {
			fmt.Fprint(stdio.Stdout, "... ")
		}
	}

	prompt()
	for scanner.Scan() {
		line := scanner.Text()
		depth += braceDelta(line)
		buf.WriteString(line)
		buf.WriteString("\n")

		if depth <= 0 && strings.TrimSpace(buf.String()) != "" {
			machine.Interpret(buf.String())
			buf.Reset()
			depth = 0
		}
		prompt()
	}

	if buf.Len() > 0 && strings.TrimSpace(buf.String()) != "" {
		machine.Interpret(buf.String())
	}

	return mainer.Success
}

// braceDelta counts net unclosed `(`/`{` on line, each `)`/`}`
// subtracting one — a plain heuristic, not a lexer; it is wrong inside
// string literals containing braces, which is an acceptable REPL
// limitation the teacher's own period-detection heuristic shares.
func braceDelta(line string) int {
	delta := 0
	for _, r := range line {
		switch r {
		case '(', '{':
			delta++
		case ')', '}':
			delta--
		}
	}
	return delta
}
