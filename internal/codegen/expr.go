package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/flyfishxu/aurora/internal/diagnostics"
	"github.com/flyfishxu/aurora/internal/frontend/ast"
	"github.com/flyfishxu/aurora/internal/types"
)

func (g *Generator) emitExpr(expr ast.Expression) value.Value {
	switch e := expr.(type) {
	case *ast.IntLit:
		return constant.NewInt(lltypes.I64, e.Value)

	case *ast.DoubleLit:
		return constant.NewFloat(lltypes.Double, e.Value)

	case *ast.BoolLit:
		return constant.NewBool(e.Value)

	case *ast.StringLit:
		return g.emitStringLit(e)

	case *ast.NullLit:
		return g.emitNullLit(e)

	case *ast.VarExpr:
		return g.emitVar(e)

	case *ast.BinaryExpr:
		return g.emitBinary(e)

	case *ast.UnaryExpr:
		return g.emitUnary(e)

	case *ast.CallExpr:
		return g.emitCall(e)

	case *ast.TernaryExpr:
		return g.emitTernary(e)

	case *ast.NullCheckExpr:
		return g.emitNullCheck(e)

	case *ast.SafeNavExpr:
		return g.emitSafeNav(e)

	case *ast.ForceUnwrapExpr:
		return g.emitForceUnwrap(e)

	case *ast.ArrayLitExpr:
		return g.emitArrayLit(e)

	case *ast.ArrayIndexExpr:
		return g.emitArrayIndex(e)

	case *ast.MemberAccessExpr:
		return g.emitMemberAccess(e)

	case *ast.MemberCallExpr:
		return g.emitMemberCall(e)

	case *ast.NewExpr:
		return g.emitNew(e)

	case *ast.ThisExpr:
		return g.emitThis(e)

	default:
		return g.errorf(diagnostics.ErrCodegenExpr, "unsupported expression")
	}
}

func (g *Generator) emitStringLit(e *ast.StringLit) value.Value {
	data := constant.NewCharArrayFromString(e.Value + "\x00")
	global := g.Module.NewGlobalDef(g.uniqueName(".str"), data)
	global.Immutable = true
	global.Linkage = enum.LinkagePrivate

	zero := constant.NewInt(lltypes.I32, 0)
	return constant.NewGetElementPtr(data.Typ, global, zero, zero)
}

func (g *Generator) emitNullLit(e *ast.NullLit) value.Value {
	if opt, ok := e.Resolved.(*types.Optional); ok {
		return constant.NewZeroInitializer(opt.LLVM())
	}
	// Untyped null decays to a null heap pointer
	return constant.NewNull(lltypes.I8Ptr)
}

func (g *Generator) emitVar(e *ast.VarExpr) value.Value {
	alloca, ok := g.namedValues[e.Name]
	if !ok {
		// Fall back to a raw parameter of the current function
		for _, param := range g.fn.Params {
			if param.Name() == e.Name {
				return param
			}
		}
		return g.errorf(diagnostics.ErrCodegenExpr, "unknown variable: %s", e.Name)
	}
	load := g.block.NewLoad(alloca.ElemType, alloca)
	g.nameValue(load, e.Name)
	return load
}

// toBool converts a value to i1: integers compare against 0, floats
// against 0.0.
func (g *Generator) toBool(v value.Value) value.Value {
	switch t := v.Type().(type) {
	case *lltypes.IntType:
		if t.BitSize == 1 {
			return v
		}
		cmp := g.block.NewICmp(enum.IPredNE, v, constant.NewInt(t, 0))
		g.nameValue(cmp, "tobool")
		return cmp
	case *lltypes.FloatType:
		cmp := g.block.NewFCmp(enum.FPredUNE, v, constant.NewFloat(t, 0))
		g.nameValue(cmp, "tobool")
		return cmp
	default:
		return v
	}
}

func (g *Generator) emitBinary(e *ast.BinaryExpr) value.Value {
	// Short-circuit logical operators get their own control flow
	if e.Op == ast.OpAnd || e.Op == ast.OpOr {
		return g.emitShortCircuit(e)
	}
	if e.Op == ast.OpNullCoalesce {
		return g.emitNullCoalesce(e)
	}

	// Optional-vs-null comparisons are normalized so the optional
	// side is extracted
	if v, handled := g.tryEmitOptionalNullCompare(e); handled {
		return v
	}

	left := g.emitExpr(e.Left)
	right := g.emitExpr(e.Right)
	if left == nil || right == nil {
		return nil
	}

	leftPtr := isPointer(left.Type())
	rightPtr := isPointer(right.Type())
	if leftPtr || rightPtr {
		if leftPtr && rightPtr {
			switch e.Op {
			case ast.OpEqual:
				return g.block.NewICmp(enum.IPredEQ, left, right)
			case ast.OpNotEqual:
				return g.block.NewICmp(enum.IPredNE, left, right)
			default:
				return g.errorf(diagnostics.ErrCodegenExpr, "only equality operators supported for pointer types")
			}
		}
		return g.errorf(diagnostics.ErrCodegenExpr, "cannot compare pointer with non-pointer type")
	}

	left, right = g.promoteOperands(left, right)
	isInt := isIntegerValue(left)

	switch e.Op {
	case ast.OpAdd:
		if isInt {
			return g.block.NewAdd(left, right)
		}
		return g.block.NewFAdd(left, right)
	case ast.OpSub:
		if isInt {
			return g.block.NewSub(left, right)
		}
		return g.block.NewFSub(left, right)
	case ast.OpMul:
		if isInt {
			return g.block.NewMul(left, right)
		}
		return g.block.NewFMul(left, right)
	case ast.OpDiv:
		if isInt {
			return g.block.NewSDiv(left, right)
		}
		return g.block.NewFDiv(left, right)
	case ast.OpMod:
		if isInt {
			return g.block.NewSRem(left, right)
		}
		return g.block.NewFRem(left, right)

	case ast.OpLess:
		if isInt {
			return g.block.NewICmp(enum.IPredSLT, left, right)
		}
		return g.block.NewFCmp(enum.FPredULT, left, right)
	case ast.OpGreater:
		if isInt {
			return g.block.NewICmp(enum.IPredSGT, left, right)
		}
		return g.block.NewFCmp(enum.FPredUGT, left, right)
	case ast.OpLessEq:
		if isInt {
			return g.block.NewICmp(enum.IPredSLE, left, right)
		}
		return g.block.NewFCmp(enum.FPredULE, left, right)
	case ast.OpGreaterEq:
		if isInt {
			return g.block.NewICmp(enum.IPredSGE, left, right)
		}
		return g.block.NewFCmp(enum.FPredUGE, left, right)
	case ast.OpEqual:
		if isInt {
			return g.block.NewICmp(enum.IPredEQ, left, right)
		}
		return g.block.NewFCmp(enum.FPredUEQ, left, right)
	case ast.OpNotEqual:
		if isInt {
			return g.block.NewICmp(enum.IPredNE, left, right)
		}
		return g.block.NewFCmp(enum.FPredUNE, left, right)

	case ast.OpBitAnd:
		if !isInt {
			return g.errorf(diagnostics.ErrCodegenExpr, "bitwise AND requires integer operands")
		}
		return g.block.NewAnd(left, right)
	case ast.OpBitOr:
		if !isInt {
			return g.errorf(diagnostics.ErrCodegenExpr, "bitwise OR requires integer operands")
		}
		return g.block.NewOr(left, right)
	case ast.OpBitXor:
		if !isInt {
			return g.errorf(diagnostics.ErrCodegenExpr, "bitwise XOR requires integer operands")
		}
		return g.block.NewXor(left, right)
	case ast.OpShiftLeft:
		if !isInt {
			return g.errorf(diagnostics.ErrCodegenExpr, "left shift requires integer operands")
		}
		return g.block.NewShl(left, right)
	case ast.OpShiftRight:
		if !isInt {
			return g.errorf(diagnostics.ErrCodegenExpr, "right shift requires integer operands")
		}
		// Arithmetic shift preserves the sign bit
		return g.block.NewAShr(left, right)

	default:
		return g.errorf(diagnostics.ErrCodegenExpr, "invalid binary operator")
	}
}

// emitShortCircuit lowers && and || as entry -> rhs -> merge with a
// PHI: the short-circuit constant flows in from the entry edge.
func (g *Generator) emitShortCircuit(e *ast.BinaryExpr) value.Value {
	left := g.emitExpr(e.Left)
	if left == nil {
		return nil
	}
	leftBool := g.toBool(left)

	entryBlock := g.block
	rhsBlock := g.newBlock("rhs")
	mergeBlock := g.newBlock("merge")

	if e.Op == ast.OpAnd {
		entryBlock.NewCondBr(leftBool, rhsBlock, mergeBlock)
	} else {
		entryBlock.NewCondBr(leftBool, mergeBlock, rhsBlock)
	}

	g.block = rhsBlock
	right := g.emitExpr(e.Right)
	if right == nil {
		return nil
	}
	rightBool := g.toBool(right)
	rhsEnd := g.block
	rhsEnd.NewBr(mergeBlock)

	g.block = mergeBlock
	var shortCircuit constant.Constant
	if e.Op == ast.OpAnd {
		shortCircuit = constant.False
	} else {
		shortCircuit = constant.True
	}

	phi := mergeBlock.NewPhi(
		ir.NewIncoming(shortCircuit, entryBlock),
		ir.NewIncoming(rightBool, rhsEnd),
	)
	g.nameValue(phi, "logictmp")
	return phi
}

// emitNullCoalesce lowers a ?? b: the right side only evaluates when
// the left optional is empty.
func (g *Generator) emitNullCoalesce(e *ast.BinaryExpr) value.Value {
	leftOpt, ok := e.Left.Type().(*types.Optional)
	if !ok {
		return g.errorf(diagnostics.ErrCodegenExpr, "'??' requires an optional left operand")
	}

	left := g.emitExpr(e.Left)
	if left == nil {
		return nil
	}

	hasValue := g.block.NewExtractValue(left, 0)
	g.nameValue(hasValue, "has_value")
	payload := g.block.NewExtractValue(left, 1)
	g.nameValue(payload, "payload")

	entryBlock := g.block
	elseBlock := g.newBlock("coalesce_else")
	mergeBlock := g.newBlock("coalesce_merge")

	entryBlock.NewCondBr(hasValue, mergeBlock, elseBlock)

	g.block = elseBlock
	fallback := g.emitExpr(e.Right)
	if fallback == nil {
		return nil
	}
	fallback = g.coerce(fallback, leftOpt.Inner.LLVM())
	elseEnd := g.block
	elseEnd.NewBr(mergeBlock)

	g.block = mergeBlock
	phi := mergeBlock.NewPhi(
		ir.NewIncoming(payload, entryBlock),
		ir.NewIncoming(fallback, elseEnd),
	)
	g.nameValue(phi, "coalesced")
	return phi
}

// tryEmitOptionalNullCompare handles optional == null / optional !=
// null. The second result is false when the comparison is not of
// that shape and ordinary lowering should proceed.
func (g *Generator) tryEmitOptionalNullCompare(e *ast.BinaryExpr) (value.Value, bool) {
	leftOptional := types.IsOptional(e.Left.Type())
	rightOptional := types.IsOptional(e.Right.Type())
	if !leftOptional && !rightOptional {
		return nil, false
	}

	if e.Op != ast.OpEqual && e.Op != ast.OpNotEqual {
		return g.errorf(diagnostics.ErrCodegenExpr, "optional values only support == or != comparisons"), true
	}

	var optionalSide ast.Expression
	if leftOptional && isNullLiteral(e.Right) {
		optionalSide = e.Left
	} else if rightOptional && isNullLiteral(e.Left) {
		optionalSide = e.Right
	} else {
		return g.errorf(diagnostics.ErrCodegenExpr, "optional comparisons support only comparisons against null"), true
	}

	optVal := g.emitExpr(optionalSide)
	if optVal == nil {
		return nil, true
	}

	hasValue := g.block.NewExtractValue(optVal, 0)
	g.nameValue(hasValue, "has_value")

	cmp := g.block.NewICmp(enum.IPredEQ, hasValue, constant.False)
	g.nameValue(cmp, "opt_is_null")
	if e.Op == ast.OpNotEqual {
		not := g.block.NewXor(cmp, constant.True)
		g.nameValue(not, "opt_not")
		return not, true
	}
	return cmp, true
}

func isNullLiteral(e ast.Expression) bool {
	_, ok := e.(*ast.NullLit)
	return ok
}

func (g *Generator) emitUnary(e *ast.UnaryExpr) value.Value {
	operand := g.emitExpr(e.Operand)
	if operand == nil {
		return nil
	}

	switch e.Op {
	case ast.OpNot:
		boolVal := g.toBool(operand)
		not := g.block.NewXor(boolVal, constant.True)
		g.nameValue(not, "nottmp")
		return not
	case ast.OpNeg:
		if isIntegerValue(operand) {
			neg := g.block.NewSub(constant.NewInt(lltypes.I64, 0), operand)
			g.nameValue(neg, "negtmp")
			return neg
		}
		neg := g.block.NewFNeg(operand)
		g.nameValue(neg, "negtmp")
		return neg
	case ast.OpBitNot:
		t, ok := operand.Type().(*lltypes.IntType)
		if !ok {
			return g.errorf(diagnostics.ErrCodegenExpr, "bitwise NOT requires integer operand")
		}
		not := g.block.NewXor(operand, constant.NewInt(t, -1))
		g.nameValue(not, "bitnottmp")
		return not
	default:
		return g.errorf(diagnostics.ErrCodegenExpr, "invalid unary operator")
	}
}

func (g *Generator) emitCall(e *ast.CallExpr) value.Value {
	callee := g.function(e.Callee)
	if callee == nil {
		return g.errorf(diagnostics.ErrCodegenExpr, "unknown function: %s", e.Callee)
	}

	if len(callee.Params) != len(e.Args) {
		return g.errorf(diagnostics.ErrCodegenExpr, "incorrect number of arguments for %s", e.Callee)
	}

	args := make([]value.Value, 0, len(e.Args))
	for idx, arg := range e.Args {
		expected := callee.Params[idx].Type()

		if isNullLiteral(arg) {
			args = append(args, constant.NewZeroInitializer(expected))
			continue
		}

		argVal := g.emitExpr(arg)
		if argVal == nil {
			return nil
		}
		args = append(args, g.coerce(argVal, expected))
	}

	call := g.block.NewCall(callee, args...)
	if !callee.Sig.RetType.Equal(lltypes.Void) {
		g.nameValue(call, "calltmp")
	}
	return call
}

func (g *Generator) emitTernary(e *ast.TernaryExpr) value.Value {
	cond := g.emitExpr(e.Cond)
	if cond == nil {
		return nil
	}
	cond = g.toBool(cond)

	thenBlock := g.newBlock("ternary_then")
	elseBlock := g.newBlock("ternary_else")
	mergeBlock := g.newBlock("ternary_merge")

	g.block.NewCondBr(cond, thenBlock, elseBlock)

	g.block = thenBlock
	thenVal := g.emitExpr(e.True)
	if thenVal == nil {
		return nil
	}
	thenEnd := g.block
	thenEnd.NewBr(mergeBlock)

	g.block = elseBlock
	elseVal := g.emitExpr(e.False)
	if elseVal == nil {
		return nil
	}
	elseEnd := g.block
	elseEnd.NewBr(mergeBlock)

	g.block = mergeBlock

	// Promote a mixed int/double pair to double
	if !thenVal.Type().Equal(elseVal.Type()) {
		if isIntegerValue(thenVal) && isFloatValue(elseVal) {
			conv := thenEnd.NewSIToFP(thenVal, elseVal.Type())
			thenVal = conv
		} else if isFloatValue(thenVal) && isIntegerValue(elseVal) {
			conv := elseEnd.NewSIToFP(elseVal, thenVal.Type())
			elseVal = conv
		}
	}

	phi := mergeBlock.NewPhi(
		ir.NewIncoming(thenVal, thenEnd),
		ir.NewIncoming(elseVal, elseEnd),
	)
	g.nameValue(phi, "ternary_result")
	return phi
}

// emitNullCheck lowers the postfix x? test to the optional's
// has_value flag (or a pointer null test).
func (g *Generator) emitNullCheck(e *ast.NullCheckExpr) value.Value {
	v := g.emitExpr(e.Operand)
	if v == nil {
		return nil
	}

	if types.IsOptional(e.Operand.Type()) {
		hasValue := g.block.NewExtractValue(v, 0)
		g.nameValue(hasValue, "has_value")
		cmp := g.block.NewICmp(enum.IPredNE, hasValue, constant.False)
		g.nameValue(cmp, "nullcheck")
		return cmp
	}

	if pt, ok := v.Type().(*lltypes.PointerType); ok {
		cmp := g.block.NewICmp(enum.IPredNE, v, constant.NewNull(pt))
		g.nameValue(cmp, "nullcheck")
		return cmp
	}

	return g.errorf(diagnostics.ErrCodegenExpr, "null check requires optional or pointer type")
}

// emitSafeNav lowers obj?.member: an empty receiver yields an empty
// optional without touching the member.
func (g *Generator) emitSafeNav(e *ast.SafeNavExpr) value.Value {
	opt, ok := e.Object.Type().(*types.Optional)
	if !ok {
		return g.errorf(diagnostics.ErrCodegenExpr, "safe navigation requires an optional receiver")
	}

	classType, ok := opt.Inner.(*types.Class)
	if !ok {
		return g.errorf(diagnostics.ErrCodegenExpr, "safe navigation requires an optional class receiver")
	}

	decl := g.classDecl(classType.Name)
	if decl == nil {
		return g.errorf(diagnostics.ErrCodegenClass, "class declaration not found: %s", classType.Name)
	}
	field := decl.FindField(e.Member)
	if field == nil {
		return g.errorf(diagnostics.ErrCodegenClass, "field not found: %s in class %s", e.Member, classType.Name)
	}

	objVal := g.emitExpr(e.Object)
	if objVal == nil {
		return nil
	}

	hasValue := g.block.NewExtractValue(objVal, 0)
	g.nameValue(hasValue, "has_value")
	objPtr := g.block.NewExtractValue(objVal, 1)
	g.nameValue(objPtr, "receiver")

	entryBlock := g.block
	loadBlock := g.newBlock("safenav_load")
	mergeBlock := g.newBlock("safenav_merge")
	entryBlock.NewCondBr(hasValue, loadBlock, mergeBlock)

	g.block = loadBlock
	fieldVal := g.loadField(objPtr, decl, e.Member, field.FieldType)
	if fieldVal == nil {
		return nil
	}

	resultType := types.NewOptional(field.FieldType).LLVM()
	some := loadBlock.NewInsertValue(constant.NewZeroInitializer(resultType), constant.True, 0)
	someFull := loadBlock.NewInsertValue(some, fieldVal, 1)
	loadEnd := g.block
	loadEnd.NewBr(mergeBlock)

	g.block = mergeBlock
	phi := mergeBlock.NewPhi(
		ir.NewIncoming(constant.NewZeroInitializer(resultType), entryBlock),
		ir.NewIncoming(someFull, loadEnd),
	)
	g.nameValue(phi, "safenav")
	return phi
}

// emitForceUnwrap lowers optional!: panic at runtime when empty,
// otherwise the payload.
func (g *Generator) emitForceUnwrap(e *ast.ForceUnwrapExpr) value.Value {
	if !types.IsOptional(e.Operand.Type()) {
		// Unwrapping a non-optional is the identity
		return g.emitExpr(e.Operand)
	}

	v := g.emitExpr(e.Operand)
	if v == nil {
		return nil
	}

	hasValue := g.block.NewExtractValue(v, 0)
	g.nameValue(hasValue, "has_value")

	panicBlock := g.newBlock("unwrap_fail")
	okBlock := g.newBlock("unwrap_ok")
	g.block.NewCondBr(hasValue, okBlock, panicBlock)

	panicFn := g.runtimeFunc("aurora_panic", lltypes.Void, ir.NewParam("message", lltypes.I8Ptr))
	msg := g.emitStringLit(&ast.StringLit{Value: "force unwrap of null value"})
	panicBlock.NewCall(panicFn, msg)
	panicBlock.NewUnreachable()

	g.block = okBlock
	payload := okBlock.NewExtractValue(v, 1)
	g.nameValue(payload, "payload")
	return payload
}

// promoteOperands widens a mixed int/double pair to double and a
// narrow integer paired with i64 to i64.
func (g *Generator) promoteOperands(left, right value.Value) (value.Value, value.Value) {
	if isIntegerValue(left) && isFloatValue(right) {
		conv := g.block.NewSIToFP(left, right.Type())
		g.nameValue(conv, "promotetmp")
		return conv, right
	}
	if isFloatValue(left) && isIntegerValue(right) {
		conv := g.block.NewSIToFP(right, left.Type())
		g.nameValue(conv, "promotetmp")
		return left, conv
	}

	lt, lok := left.Type().(*lltypes.IntType)
	rt, rok := right.Type().(*lltypes.IntType)
	if lok && rok && lt.BitSize != rt.BitSize {
		if lt.BitSize < rt.BitSize {
			return g.block.NewZExt(left, rt), right
		}
		return left, g.block.NewZExt(right, lt)
	}

	return left, right
}

// coerce converts a value to the expected IR type per the argument
// and return coercion table (int<->double, bool widening, numeric to
// bool).
func (g *Generator) coerce(v value.Value, expected lltypes.Type) value.Value {
	actual := v.Type()
	if actual.Equal(expected) {
		return v
	}

	expInt, expIsInt := expected.(*lltypes.IntType)
	actInt, actIsInt := actual.(*lltypes.IntType)
	_, expIsFloat := expected.(*lltypes.FloatType)
	_, actIsFloat := actual.(*lltypes.FloatType)

	switch {
	case actIsInt && expIsFloat:
		if actInt.BitSize == 1 {
			return g.block.NewUIToFP(v, expected)
		}
		return g.block.NewSIToFP(v, expected)
	case actIsFloat && expIsInt && expInt.BitSize == 1:
		return g.block.NewFCmp(enum.FPredUNE, v, constant.NewFloat(lltypes.Double, 0))
	case actIsFloat && expIsInt:
		return g.block.NewFPToSI(v, expected)
	case actIsInt && expIsInt && expInt.BitSize == 1:
		return g.block.NewICmp(enum.IPredNE, v, constant.NewInt(actInt, 0))
	case actIsInt && expIsInt && actInt.BitSize < expInt.BitSize:
		return g.block.NewZExt(v, expected)
	case actIsInt && expIsInt && actInt.BitSize > expInt.BitSize:
		return g.block.NewTrunc(v, expected)
	default:
		return v
	}
}

func isPointer(t lltypes.Type) bool {
	_, ok := t.(*lltypes.PointerType)
	return ok
}

func isIntegerValue(v value.Value) bool {
	_, ok := v.Type().(*lltypes.IntType)
	return ok
}

func isFloatValue(v value.Value) bool {
	_, ok := v.Type().(*lltypes.FloatType)
	return ok
}
