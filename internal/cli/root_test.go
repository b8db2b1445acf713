package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionFlag(t *testing.T) {
	exitCode := 0
	cmd := NewRootCommand(&exitCode)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, 0, exitCode)
	assert.Contains(t, out.String(), "Aurora version")
}

func TestTypeDemoFlag(t *testing.T) {
	exitCode := 0
	cmd := NewRootCommand(&exitCode)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--type-demo"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, 0, exitCode)
	assert.Contains(t, out.String(), "Optional Types")
	assert.Contains(t, out.String(), "int?")
}

func TestMissingInputFile(t *testing.T) {
	exitCode := 0
	cmd := NewRootCommand(&exitCode)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, 1, exitCode)
}

func TestInvalidLogLevel(t *testing.T) {
	exitCode := 0
	cmd := NewRootCommand(&exitCode)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--log-level", "loud", "program.aur"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}
