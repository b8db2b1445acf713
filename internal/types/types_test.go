package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	lltypes "github.com/llir/llvm/ir/types"
)

func TestMangledNames(t *testing.T) {
	cases := []struct {
		typ  Type
		want string
	}{
		{Void, "v"},
		{Int, "i"},
		{Double, "d"},
		{Bool, "b"},
		{String, "s"},
		{NewOptional(Int), "oi"},
		{NewOptional(NewArray(Double)), "oad"},
		{NewArray(Int), "ai"},
		{NewFunction(Int, []Type{Int, Double}), "fidri"},
		{NewFunction(Void, nil), "frv"},
		{&Class{Name: "Point"}, "cPoint"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.typ.Mangled(), "type %s", tc.typ)
	}
}

func TestStringSpelling(t *testing.T) {
	assert.Equal(t, "int?", NewOptional(Int).String())
	assert.Equal(t, "[double]", NewArray(Double).String())
	assert.Equal(t, "fn(int, int) -> bool", NewFunction(Bool, []Type{Int, Int}).String())
	assert.Equal(t, "Point", (&Class{Name: "Point"}).String())
}

func TestStructuralEquality(t *testing.T) {
	assert.True(t, NewOptional(Int).Equals(NewOptional(Int)))
	assert.False(t, NewOptional(Int).Equals(NewOptional(Double)))
	assert.False(t, NewOptional(Int).Equals(Int))

	assert.True(t, NewArray(Int).Equals(NewArray(Int)))
	assert.False(t, NewArray(Int).Equals(NewArray(NewArray(Int))))

	f1 := NewFunction(Int, []Type{Double})
	f2 := NewFunction(Int, []Type{Double})
	f3 := NewFunction(Int, []Type{Int})
	assert.True(t, f1.Equals(f2))
	assert.False(t, f1.Equals(f3))

	assert.True(t, (&Class{Name: "A"}).Equals(&Class{Name: "A"}))
	assert.False(t, (&Class{Name: "A"}).Equals(&Class{Name: "B"}))
}

func TestLLVMLowering(t *testing.T) {
	assert.True(t, Int.LLVM().Equal(lltypes.I64))
	assert.True(t, Double.LLVM().Equal(lltypes.Double))
	assert.True(t, Bool.LLVM().Equal(lltypes.I1))
	assert.True(t, String.LLVM().Equal(lltypes.I8Ptr))

	// Optional(T) is {i1, T}
	opt := NewOptional(Int).LLVM().(*lltypes.StructType)
	assert.True(t, opt.Fields[0].Equal(lltypes.I1))
	assert.True(t, opt.Fields[1].Equal(lltypes.I64))

	// A void payload widens to i8
	optVoid := NewOptional(Void).LLVM().(*lltypes.StructType)
	assert.True(t, optVoid.Fields[1].Equal(lltypes.I8))

	// Array(T) is {i64 length, ptr data}
	arr := NewArray(Double).LLVM().(*lltypes.StructType)
	assert.True(t, arr.Fields[0].Equal(lltypes.I64))
	assert.True(t, arr.Fields[1].Equal(lltypes.I8Ptr))
}

func TestRegistryInternsClasses(t *testing.T) {
	reg := NewRegistry()

	a := reg.Class("Point")
	b := reg.Class("Point")
	assert.Same(t, a, b)

	assert.False(t, reg.IsDeclared("Point"))
	reg.Declare("Point")
	assert.True(t, reg.IsDeclared("Point"))

	// The declaration back-pointer is visible through every handle
	decl := struct{ name string }{"point decl"}
	a.SetDecl(&decl)
	assert.True(t, b.HasDecl())
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsOptional(NewOptional(Int)))
	assert.False(t, IsOptional(Int))

	assert.True(t, IsNumeric(Int))
	assert.True(t, IsNumeric(Double))
	assert.False(t, IsNumeric(Bool))

	assert.True(t, IsReference(String))
	assert.True(t, IsReference(&Class{Name: "A"}))
	assert.False(t, IsReference(NewArray(Int)))
}
