package cmdline_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/loxvm/internal/cmdline"
)

func stdio(stdin string) (mainer.Stdio, *bytes.Buffer, *bytes.Buffer) {
	var out, errBuf bytes.Buffer
	return mainer.Stdio{
		Stdin:  strings.NewReader(stdin),
		Stdout: &out,
		Stderr: &errBuf,
	}, &out, &errBuf
}

func TestHelpExitsSuccess(t *testing.T) {
	c := cmdline.Cmd{}
	s, out, _ := stdio("")
	code := c.Main([]string{"loxvm", "--help"}, s)
	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, out.String(), "usage: loxvm")
}

func TestVersionExitsSuccess(t *testing.T) {
	c := cmdline.Cmd{BuildVersion: "9.9.9"}
	s, out, _ := stdio("")
	code := c.Main([]string{"loxvm", "--version"}, s)
	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, out.String(), "9.9.9")
}

func TestTooManyArgsIsUsageError(t *testing.T) {
	c := cmdline.Cmd{}
	s, _, errBuf := stdio("")
	code := c.Main([]string{"loxvm", "a.lox", "b.lox"}, s)
	assert.Equal(t, cmdline.ExitUsage, code)
	assert.NotEmpty(t, errBuf.String())
}

func TestRunFileSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.lox")
	require.NoError(t, os.WriteFile(path, []byte(`print 1 + 1;`), 0o644))

	c := cmdline.Cmd{}
	s, out, errBuf := stdio("")
	code := c.Main([]string{"loxvm", path}, s)
	assert.Equal(t, mainer.Success, code)
	assert.Equal(t, "2\n", out.String())
	assert.Empty(t, errBuf.String())
}

func TestRunFileCompileErrorExitsDataErr(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.lox")
	require.NoError(t, os.WriteFile(path, []byte(`print 1 +;`), 0o644))

	c := cmdline.Cmd{}
	s, _, errBuf := stdio("")
	code := c.Main([]string{"loxvm", path}, s)
	assert.Equal(t, cmdline.ExitDataErr, code)
	assert.NotEmpty(t, errBuf.String())
}

func TestRunFileRuntimeErrorExitsSoftware(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boom.lox")
	require.NoError(t, os.WriteFile(path, []byte(`print 1 + "nope";`), 0o644))

	c := cmdline.Cmd{}
	s, _, errBuf := stdio("")
	code := c.Main([]string{"loxvm", path}, s)
	assert.Equal(t, cmdline.ExitSoftware, code)
	assert.NotEmpty(t, errBuf.String())
}

func TestRunFileMissingExitsIOErr(t *testing.T) {
	c := cmdline.Cmd{}
	s, _, errBuf := stdio("")
	code := c.Main([]string{"loxvm", "/no/such/file.lox"}, s)
	assert.Equal(t, cmdline.ExitIOErr, code)
	assert.NotEmpty(t, errBuf.String())
}

func TestREPLEvaluatesEachStatementAgainstPersistentState(t *testing.T) {
	c := cmdline.Cmd{}
	s, out, errBuf := stdio("var a = 1;\nprint a + 1;\n")
	code := c.Main([]string{"loxvm"}, s)
	assert.Equal(t, mainer.Success, code)
	assert.Empty(t, errBuf.String())
	assert.Contains(t, out.String(), "2\n")
}

func TestREPLBuffersAcrossBraceBoundary(t *testing.T) {
	c := cmdline.Cmd{}
	s, out, errBuf := stdio("fun f() {\nreturn 42;\n}\nprint f();\n")
	code := c.Main([]string{"loxvm"}, s)
	assert.Equal(t, mainer.Success, code)
	assert.Empty(t, errBuf.String())
	assert.Contains(t, out.String(), "42\n")
}
