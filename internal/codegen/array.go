package codegen

import (
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/flyfishxu/aurora/internal/diagnostics"
	"github.com/flyfishxu/aurora/internal/frontend/ast"
	"github.com/flyfishxu/aurora/internal/types"
)

// emitArrayLit creates a runtime-backed array and returns the
// {length, data} pair the rest of the code operates on.
func (g *Generator) emitArrayLit(e *ast.ArrayLitExpr) value.Value {
	arrayType, ok := e.ArrayType.(*types.Array)
	if !ok {
		return g.errorf(diagnostics.ErrCodegenArray, "array literal has non-array type")
	}

	elemLLVM := arrayType.Elem.LLVM()
	elemSize := constant.NewInt(lltypes.I64, allocSize(elemLLVM))
	elemCount := constant.NewInt(lltypes.I64, int64(len(e.Elements)))

	runtimeArray := g.block.NewCall(g.runtimeArrayCreate(), elemSize, elemCount)
	g.nameValue(runtimeArray, "array")

	// Store each element through the runtime, staging it in a
	// temporary slot
	for i, elem := range e.Elements {
		elemVal := g.emitExpr(elem)
		if elemVal == nil {
			return nil
		}
		elemVal = g.coerce(elemVal, elemLLVM)

		elemTmp := g.block.NewAlloca(elemLLVM)
		g.nameValue(elemTmp, "elem_tmp")
		g.block.NewStore(elemVal, elemTmp)

		slot := g.block.NewBitCast(elemTmp, lltypes.I8Ptr)
		g.block.NewCall(g.runtimeArraySet(), runtimeArray,
			constant.NewInt(lltypes.I64, int64(i)), slot, elemSize)
	}

	length := g.block.NewCall(g.runtimeArrayLength(), runtimeArray)
	g.nameValue(length, "length")

	// Read the data pointer out of the runtime object:
	// { {ref_count, type_tag}, length, data }
	runtimeStruct := runtimeArrayStruct()
	typedArray := g.block.NewBitCast(runtimeArray, lltypes.NewPointer(runtimeStruct))
	dataFieldPtr := g.block.NewGetElementPtr(runtimeStruct, typedArray,
		constant.NewInt(lltypes.I32, 0),
		constant.NewInt(lltypes.I32, 2))
	g.nameValue(dataFieldPtr, "data_field_ptr")
	dataPtr := g.block.NewLoad(lltypes.I8Ptr, dataFieldPtr)
	g.nameValue(dataPtr, "data")

	arrayStruct := e.ArrayType.LLVM()
	withLength := g.block.NewInsertValue(constant.NewUndef(arrayStruct), length, 0)
	withData := g.block.NewInsertValue(withLength, dataPtr, 1)
	return withData
}

// indexToI64 widens or truncates an index to i64; double indices are
// truncated.
func (g *Generator) indexToI64(indexVal value.Value) value.Value {
	switch t := indexVal.Type().(type) {
	case *lltypes.IntType:
		if t.BitSize == 64 {
			return indexVal
		}
		if t.BitSize < 64 {
			conv := g.block.NewZExt(indexVal, lltypes.I64)
			g.nameValue(conv, "idx_ext")
			return conv
		}
		conv := g.block.NewTrunc(indexVal, lltypes.I64)
		g.nameValue(conv, "idx_ext")
		return conv
	case *lltypes.FloatType:
		conv := g.block.NewFPToSI(indexVal, lltypes.I64)
		g.nameValue(conv, "idx_conv")
		return conv
	default:
		return indexVal
	}
}

// arrayElementPtr computes the address of arr[idx] by byte offset
// from the data pointer.
func (g *Generator) arrayElementPtr(e *ast.ArrayIndexExpr) (value.Value, lltypes.Type) {
	arrayType, ok := e.Array.Type().(*types.Array)
	if !ok {
		g.errorf(diagnostics.ErrCodegenArray, "array index on non-array type")
		return nil, nil
	}

	arrayVal := g.emitExpr(e.Array)
	indexVal := g.emitExpr(e.Index)
	if arrayVal == nil || indexVal == nil {
		return nil, nil
	}

	indexVal = g.indexToI64(indexVal)

	dataPtr := g.block.NewExtractValue(arrayVal, 1)
	g.nameValue(dataPtr, "array_data")

	elemLLVM := arrayType.Elem.LLVM()
	elemSize := constant.NewInt(lltypes.I64, allocSize(elemLLVM))

	offset := g.block.NewMul(indexVal, elemSize)
	g.nameValue(offset, "offset")

	bytePtr := g.block.NewGetElementPtr(lltypes.I8, dataPtr, offset)
	g.nameValue(bytePtr, "elem_ptr")

	elemPtr := g.block.NewBitCast(bytePtr, lltypes.NewPointer(elemLLVM))
	return elemPtr, elemLLVM
}

func (g *Generator) emitArrayIndex(e *ast.ArrayIndexExpr) value.Value {
	elemPtr, elemType := g.arrayElementPtr(e)
	if elemPtr == nil {
		return nil
	}
	load := g.block.NewLoad(elemType, elemPtr)
	g.nameValue(load, "elem")
	return load
}
