package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyfishxu/aurora/internal/codegen"
	"github.com/flyfishxu/aurora/internal/diagnostics"
	"github.com/flyfishxu/aurora/internal/types"
)

func TestRegisterDeclaresBothPrefixes(t *testing.T) {
	gen := codegen.New(types.NewRegistry(), diagnostics.NewBag())
	Register(gen)

	declared := map[string]bool{}
	for _, fn := range gen.Module.Funcs {
		declared[fn.Name()] = true
	}

	for _, sig := range stdlib {
		assert.True(t, declared["aurora_"+sig.name], "missing aurora_%s", sig.name)
		assert.True(t, declared["auroraStd"+camelCase(sig.name)], "missing auroraStd alias for %s", sig.name)
	}

	assert.True(t, declared["printd"])
}

func TestRegisterIsIdempotent(t *testing.T) {
	gen := codegen.New(types.NewRegistry(), diagnostics.NewBag())
	Register(gen)
	count := len(gen.Module.Funcs)
	Register(gen)
	assert.Equal(t, count, len(gen.Module.Funcs))
}

func TestCamelCase(t *testing.T) {
	require.Equal(t, "PrintInt", camelCase("print_int"))
	require.Equal(t, "StringIndexOf", camelCase("string_index_of"))
	require.Equal(t, "Sqrt", camelCase("sqrt"))
}
