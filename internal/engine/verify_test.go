package engine

import (
	"testing"

	"github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/constant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAcceptsTerminatedBlocks(t *testing.T) {
	m := ir.NewModule()
	f := m.NewFunc("main", lltypes.I64)
	entry := f.NewBlock("entry")
	entry.NewRet(constant.NewInt(lltypes.I64, 0))

	assert.NoError(t, Verify(m))
}

func TestVerifyRejectsMissingTerminator(t *testing.T) {
	m := ir.NewModule()
	f := m.NewFunc("main", lltypes.I64)
	f.NewBlock("entry") // no terminator

	err := Verify(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no terminator")
}

func TestVerifyIgnoresDeclarations(t *testing.T) {
	m := ir.NewModule()
	m.NewFunc("aurora_array_create", lltypes.I8Ptr,
		ir.NewParam("element_size", lltypes.I64),
		ir.NewParam("element_count", lltypes.I64))

	assert.NoError(t, Verify(m))
}

func TestVerifyChecksCallArity(t *testing.T) {
	m := ir.NewModule()
	callee := m.NewFunc("callee", lltypes.Void, ir.NewParam("x", lltypes.I64))

	f := m.NewFunc("main", lltypes.I64)
	entry := f.NewBlock("entry")
	entry.NewCall(callee) // missing argument
	entry.NewRet(constant.NewInt(lltypes.I64, 0))

	err := Verify(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has 0 args, want 1")
}

func TestFindMain(t *testing.T) {
	m := ir.NewModule()
	assert.Nil(t, FindMain(m))

	// A declaration does not count as a definition
	m.NewFunc("main", lltypes.I64)
	assert.Nil(t, FindMain(m))

	m2 := ir.NewModule()
	f := m2.NewFunc("main", lltypes.Void)
	f.NewBlock("entry").NewRet(nil)
	require.NotNil(t, FindMain(m2))
}
