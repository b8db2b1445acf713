package codegen

import (
	"github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"
)

// Runtime symbol declarations. Each is declared in the module on
// first use; the engine binds the definitions at link time.

// DeclareExternal declares a C-ABI symbol in the module, reusing an
// existing declaration. The builtins registry goes through this.
func (g *Generator) DeclareExternal(name string, ret lltypes.Type, params ...*ir.Param) *ir.Func {
	return g.runtimeFunc(name, ret, params...)
}

func (g *Generator) runtimeFunc(name string, ret lltypes.Type, params ...*ir.Param) *ir.Func {
	if f := g.function(name); f != nil {
		return f
	}
	f := g.Module.NewFunc(name, ret, params...)
	g.setFunction(name, f)
	return f
}

func (g *Generator) runtimeArrayCreate() *ir.Func {
	return g.runtimeFunc("aurora_array_create", lltypes.I8Ptr,
		ir.NewParam("element_size", lltypes.I64),
		ir.NewParam("element_count", lltypes.I64))
}

func (g *Generator) runtimeArraySet() *ir.Func {
	return g.runtimeFunc("aurora_array_set", lltypes.Void,
		ir.NewParam("array", lltypes.I8Ptr),
		ir.NewParam("index", lltypes.I64),
		ir.NewParam("element", lltypes.I8Ptr),
		ir.NewParam("element_size", lltypes.I64))
}

func (g *Generator) runtimeArrayLength() *ir.Func {
	return g.runtimeFunc("aurora_array_length", lltypes.I64,
		ir.NewParam("array", lltypes.I8Ptr))
}

func (g *Generator) runtimeRetain() *ir.Func {
	return g.runtimeFunc("aurora_retain", lltypes.I8Ptr,
		ir.NewParam("ptr", lltypes.I8Ptr))
}

func (g *Generator) runtimeRelease() *ir.Func {
	return g.runtimeFunc("aurora_release", lltypes.Void,
		ir.NewParam("ptr", lltypes.I8Ptr))
}

func (g *Generator) runtimeMalloc() *ir.Func {
	return g.runtimeFunc("malloc", lltypes.I8Ptr,
		ir.NewParam("size", lltypes.I64))
}

// runtimeArrayStruct is the layout of the runtime's array object:
// {ref_count i64, type_tag i32} header followed by length and data.
func runtimeArrayStruct() *lltypes.StructType {
	header := lltypes.NewStruct(lltypes.I64, lltypes.I32)
	return lltypes.NewStruct(header, lltypes.I64, lltypes.I8Ptr)
}

// allocSize computes the allocation size in bytes of an IR type,
// matching the usual C data layout on 64-bit targets.
func allocSize(t lltypes.Type) int64 {
	switch tt := t.(type) {
	case *lltypes.IntType:
		switch {
		case tt.BitSize <= 8:
			return 1
		case tt.BitSize <= 16:
			return 2
		case tt.BitSize <= 32:
			return 4
		default:
			return 8
		}
	case *lltypes.FloatType:
		if tt.Kind == lltypes.FloatKindFloat {
			return 4
		}
		return 8
	case *lltypes.PointerType:
		return 8
	case *lltypes.StructType:
		var size, maxAlign int64 = 0, 1
		for _, field := range tt.Fields {
			fieldSize := allocSize(field)
			align := allocAlign(field)
			if align > maxAlign {
				maxAlign = align
			}
			size = roundUp(size, align) + fieldSize
		}
		return roundUp(size, maxAlign)
	default:
		return 8
	}
}

func allocAlign(t lltypes.Type) int64 {
	switch tt := t.(type) {
	case *lltypes.StructType:
		var maxAlign int64 = 1
		for _, field := range tt.Fields {
			if a := allocAlign(field); a > maxAlign {
				maxAlign = a
			}
		}
		return maxAlign
	default:
		return allocSize(tt)
	}
}

func roundUp(n, align int64) int64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
