package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xyproto/env/v2"
)

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.aur")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestEmitLLVM(t *testing.T) {
	entry := writeSource(t, "fn main() -> int { return 14; }")
	output := filepath.Join(filepath.Dir(entry), "out.ll")

	result := Compile(&Options{
		EntryFile: entry,
		EmitLLVM:  true,
		Output:    output,
	})

	require.True(t, result.Success)
	assert.Equal(t, 0, result.ExitCode)

	ir, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(ir), "define i64 @main()")
}

func TestEmitLLVMWithImports(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.aur"),
		[]byte("fn triple(x: int) -> int { return x * 3; }"), 0644))
	entry := filepath.Join(dir, "main.aur")
	require.NoError(t, os.WriteFile(entry,
		[]byte("import \"lib\"\nfn main() -> int { return triple(4); }"), 0644))
	output := filepath.Join(dir, "out.ll")

	result := Compile(&Options{EntryFile: entry, EmitLLVM: true, Output: output})
	require.True(t, result.Success)

	ir, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(ir), "define i64 @triple")
	assert.Contains(t, string(ir), "define i64 @main()")
}

func TestMissingFileFails(t *testing.T) {
	result := Compile(&Options{EntryFile: "/does/not/exist.aur"})
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.ExitCode)
}

func TestParseErrorFails(t *testing.T) {
	entry := writeSource(t, "fn main( {")
	result := Compile(&Options{EntryFile: entry, EmitLLVM: true})
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.ExitCode)
}

func TestSysrootPrefersEnv(t *testing.T) {
	t.Setenv("AURORA_HOME", "/opt/aurora")
	env.Load()
	assert.Equal(t, "/opt/aurora", Sysroot())
}
