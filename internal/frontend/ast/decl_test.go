package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyfishxu/aurora/internal/source"
	"github.com/flyfishxu/aurora/internal/types"
)

func sampleClass() *ClassDecl {
	return &ClassDecl{
		Name: "Point",
		Fields: []FieldDecl{
			{Name: "x", FieldType: types.Int, Public: true},
			{Name: "y", FieldType: types.Double, Public: true},
		},
	}
}

func TestFieldLookup(t *testing.T) {
	c := sampleClass()

	require.NotNil(t, c.FindField("x"))
	assert.Nil(t, c.FindField("z"))

	assert.Equal(t, 0, c.FieldIndex("x"))
	assert.Equal(t, 1, c.FieldIndex("y"))
	assert.Equal(t, -1, c.FieldIndex("z"))
}

func TestGenerateImplicitConstructor(t *testing.T) {
	c := sampleClass()
	classType := &types.Class{Name: "Point"}

	c.GenerateImplicitConstructor(classType)

	require.Len(t, c.Methods, 1)
	ctor := c.Methods[0]
	assert.True(t, ctor.Constructor)
	require.Len(t, ctor.Params, 2)
	assert.Equal(t, "x", ctor.Params[0].Name)
	assert.True(t, ctor.Params[1].Type.Equals(types.Double))
	assert.Len(t, ctor.Body, 2)

	// Idempotent: an existing constructor suppresses generation
	c.GenerateImplicitConstructor(classType)
	assert.Len(t, c.Methods, 1)
}

func TestFindMethodBySig(t *testing.T) {
	c := &ClassDecl{
		Name: "C",
		Methods: []MethodDecl{
			{Name: "constructor", Constructor: true, Params: []Parameter{{Name: "x", Type: types.Int}}},
			{Name: "constructor", Constructor: true, Params: []Parameter{{Name: "x", Type: types.Double}}},
		},
	}

	intCtor := c.FindMethodBySig("constructor", []types.Type{types.Int})
	require.NotNil(t, intCtor)
	assert.True(t, intCtor.Params[0].Type.Equals(types.Int))

	doubleCtor := c.FindMethodBySig("constructor", []types.Type{types.Double})
	require.NotNil(t, doubleCtor)
	assert.True(t, doubleCtor.Params[0].Type.Equals(types.Double))

	assert.Nil(t, c.FindMethodBySig("constructor", []types.Type{types.Bool}))
	assert.Nil(t, c.FindMethodBySig("constructor", []types.Type{types.Int, types.Int}))
}

func TestNullLitResolution(t *testing.T) {
	n := NewNullLit(source.Location{})
	assert.True(t, types.IsOptional(n.Type()))

	n.SetResolvedType(types.NewOptional(types.Int))
	assert.True(t, n.Type().Equals(types.NewOptional(types.Int)))

	// nil does not clobber the resolved type
	n.SetResolvedType(nil)
	assert.True(t, n.Type().Equals(types.NewOptional(types.Int)))
}

func TestMemberCallTypeRefinement(t *testing.T) {
	classType := &types.Class{Name: "Counter"}
	decl := &ClassDecl{
		Name: "Counter",
		Methods: []MethodDecl{
			{Name: "value", Return: types.Int},
		},
	}
	classType.SetDecl(decl)

	call := &MemberCallExpr{
		Object:  &VarExpr{Name: "c", VarType: classType},
		Method:  "value",
		RetType: types.Double, // stale parse-time fallback
	}

	assert.True(t, call.Type().Equals(types.Int))
}
