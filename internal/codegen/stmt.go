package codegen

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/flyfishxu/aurora/internal/diagnostics"
	"github.com/flyfishxu/aurora/internal/frontend/ast"
	"github.com/flyfishxu/aurora/internal/types"
)

func (g *Generator) emitStmt(stmt ast.Statement) {
	// Statements after a terminator are unreachable; skip them
	if g.block == nil || g.block.Term != nil {
		return
	}

	switch s := stmt.(type) {
	case *ast.ReturnStmt:
		g.emitReturn(s)
	case *ast.ExprStmt:
		g.emitExpr(s.X)
	case *ast.VarDeclStmt:
		g.emitVarDecl(s)
	case *ast.IfStmt:
		g.emitIf(s)
	case *ast.WhileStmt:
		g.emitWhile(s)
	case *ast.ForStmt:
		g.emitFor(s)
	case *ast.LoopStmt:
		g.emitLoop(s)
	case *ast.BreakStmt:
		g.emitBreak()
	case *ast.ContinueStmt:
		g.emitContinue()
	case *ast.AssignStmt:
		g.emitAssign(s)
	default:
		g.errorf(diagnostics.ErrCodegenStmt, "unsupported statement")
	}
}

func (g *Generator) emitStmts(stmts []ast.Statement) {
	for _, stmt := range stmts {
		g.emitStmt(stmt)
	}
}

func (g *Generator) emitReturn(s *ast.ReturnStmt) {
	expectedRet := g.fn.Sig.RetType

	if s.Value == nil {
		if !expectedRet.Equal(lltypes.Void) {
			g.errorf(diagnostics.ErrCodegenStmt, "cannot use empty return in non-void function")
			return
		}
		g.releaseAllInScope()
		g.block.NewRet(nil)
		return
	}

	if expectedRet.Equal(lltypes.Void) {
		g.errorf(diagnostics.ErrCodegenStmt, "cannot return a value from a void function")
		return
	}

	// A returned null narrows to the function's optional return type
	if nullLit, ok := s.Value.(*ast.NullLit); ok {
		if ret := g.currentReturnType(); ret != nil && types.IsOptional(ret) {
			nullLit.SetResolvedType(ret)
		}
	}

	retVal := g.emitExpr(s.Value)
	if retVal == nil {
		return
	}

	retVal = g.coerce(retVal, expectedRet)

	// Release scope-tracked variables before the terminator
	g.releaseAllInScope()
	g.block.NewRet(retVal)
}

func (g *Generator) emitVarDecl(s *ast.VarDeclStmt) {
	// Narrow a null initializer to the declared optional type
	if nullLit, ok := s.Init.(*ast.NullLit); ok && types.IsOptional(s.VarType) {
		nullLit.SetResolvedType(s.VarType)
	}

	initVal := g.emitExpr(s.Init)
	if initVal == nil {
		return
	}

	allocaType := initVal.Type()
	if s.VarType != nil {
		allocaType = s.VarType.LLVM()
	}

	alloca := g.createEntryBlockAlloca(s.Name, allocaType)
	g.block.NewStore(g.coerce(initVal, allocaType), alloca)

	g.namedValues[s.Name] = alloca
	g.varTypes[s.Name] = s.VarType

	// Arrays join the scope's release list; their backing store is
	// runtime-owned. Class instances are raw allocations and are not
	// tracked.
	if s.VarType != nil && s.VarType.Kind() == types.KindArray {
		g.trackVariable(s.Name, alloca)
	}
}

func (g *Generator) emitIf(s *ast.IfStmt) {
	condVal := g.emitExpr(s.Cond)
	if condVal == nil {
		return
	}
	condVal = g.toBool(condVal)

	thenBlock := g.newBlock("then")
	elseBlock := g.newBlock("else")
	mergeBlock := g.newBlock("ifcont")

	g.block.NewCondBr(condVal, thenBlock, elseBlock)

	g.block = thenBlock
	g.emitStmts(s.Then)
	thenTerminated := g.block.Term != nil
	if !thenTerminated {
		g.block.NewBr(mergeBlock)
	}

	g.block = elseBlock
	g.emitStmts(s.Else)
	elseTerminated := g.block.Term != nil
	if !elseTerminated {
		g.block.NewBr(mergeBlock)
	}

	if !thenTerminated || !elseTerminated {
		g.block = mergeBlock
		return
	}

	// Both branches terminate: the merge block would be unreachable,
	// keep emitting into it so trailing statements have a home
	mergeBlock.SetName(g.uniqueName("unreachable"))
	g.block = mergeBlock
}

func (g *Generator) emitWhile(s *ast.WhileStmt) {
	condBlock := g.newBlock("whilecond")
	bodyBlock := g.newBlock("whilebody")
	afterBlock := g.newBlock("afterwhile")

	g.pushLoopContext(afterBlock, condBlock)
	g.block.NewBr(condBlock)

	g.block = condBlock
	condVal := g.emitExpr(s.Cond)
	if condVal == nil {
		g.popLoopContext()
		return
	}
	condVal = g.toBool(condVal)
	g.block.NewCondBr(condVal, bodyBlock, afterBlock)

	g.block = bodyBlock
	g.emitStmts(s.Body)
	if g.block.Term == nil {
		g.block.NewBr(condBlock)
	}

	g.popLoopContext()
	g.block = afterBlock
}

func (g *Generator) emitFor(s *ast.ForStmt) {
	startVal := g.emitExpr(s.Start)
	endVal := g.emitExpr(s.End)
	if startVal == nil || endVal == nil {
		return
	}

	// Align range endpoint types
	if !startVal.Type().Equal(endVal.Type()) {
		if isFloatValue(startVal) && isIntegerValue(endVal) {
			endVal = g.block.NewSIToFP(endVal, startVal.Type())
		} else if isIntegerValue(startVal) && isFloatValue(endVal) {
			startVal = g.block.NewSIToFP(startVal, endVal.Type())
		}
	}

	alloca := g.createEntryBlockAlloca(s.VarName, startVal.Type())
	g.block.NewStore(startVal, alloca)

	oldAlloca, hadOld := g.namedValues[s.VarName]
	g.namedValues[s.VarName] = alloca

	condBlock := g.newBlock("forcond")
	bodyBlock := g.newBlock("forbody")
	stepBlock := g.newBlock("forstep")
	afterBlock := g.newBlock("afterfor")

	g.pushLoopContext(afterBlock, stepBlock)
	g.block.NewBr(condBlock)

	// Condition: semi-open range, var < end
	g.block = condBlock
	cur := condBlock.NewLoad(alloca.ElemType, alloca)
	g.nameValue(cur, s.VarName)
	var cond value.Value
	if isIntegerValue(cur) {
		cond = condBlock.NewICmp(enum.IPredSLT, cur, endVal)
	} else {
		cond = condBlock.NewFCmp(enum.FPredULT, cur, endVal)
	}
	condBlock.NewCondBr(cond, bodyBlock, afterBlock)

	g.block = bodyBlock
	g.emitStmts(s.Body)
	if g.block.Term == nil {
		g.block.NewBr(stepBlock)
	}

	// Step: var = var + step (default 1)
	g.block = stepBlock
	next := stepBlock.NewLoad(alloca.ElemType, alloca)
	g.nameValue(next, s.VarName)

	var stepVal value.Value
	if s.Step != nil {
		stepVal = g.emitExpr(s.Step)
		if stepVal == nil {
			g.popLoopContext()
			return
		}
		if !stepVal.Type().Equal(next.Type()) {
			if isFloatValue(next) && isIntegerValue(stepVal) {
				stepVal = g.block.NewSIToFP(stepVal, next.Type())
			} else if isIntegerValue(next) && isFloatValue(stepVal) {
				stepVal = g.block.NewFPToSI(stepVal, next.Type())
			}
		}
	} else if isIntegerValue(next) {
		stepVal = constant.NewInt(lltypes.I64, 1)
	} else {
		stepVal = constant.NewFloat(lltypes.Double, 1)
	}

	var advanced value.Value
	if isIntegerValue(next) {
		advanced = g.block.NewAdd(next, stepVal)
	} else {
		advanced = g.block.NewFAdd(next, stepVal)
	}
	g.block.NewStore(advanced, alloca)
	g.block.NewBr(condBlock)

	g.popLoopContext()
	g.block = afterBlock

	if hadOld {
		g.namedValues[s.VarName] = oldAlloca
	} else {
		delete(g.namedValues, s.VarName)
	}
}

func (g *Generator) emitLoop(s *ast.LoopStmt) {
	bodyBlock := g.newBlock("loopbody")
	afterBlock := g.newBlock("afterloop")

	g.pushLoopContext(afterBlock, bodyBlock)
	g.block.NewBr(bodyBlock)

	g.block = bodyBlock
	g.emitStmts(s.Body)
	if g.block.Term == nil {
		g.block.NewBr(bodyBlock)
	}

	g.popLoopContext()
	g.block = afterBlock
}

func (g *Generator) emitBreak() {
	loop := g.currentLoop()
	if loop == nil {
		g.errorf(diagnostics.ErrCodegenStmt, "'break' statement must be inside a loop (while, for, or loop)")
		return
	}
	g.block.NewBr(loop.breakTarget)
}

func (g *Generator) emitContinue() {
	loop := g.currentLoop()
	if loop == nil {
		g.errorf(diagnostics.ErrCodegenStmt, "'continue' statement must be inside a loop (while, for, or loop)")
		return
	}
	g.block.NewBr(loop.continueTarget)
}

func (g *Generator) emitAssign(s *ast.AssignStmt) {
	// A null RHS narrows to the target variable's optional type
	if nullLit, ok := s.Value.(*ast.NullLit); ok {
		if varExpr, isVar := s.Target.(*ast.VarExpr); isVar {
			if t, found := g.varTypes[varExpr.Name]; found && types.IsOptional(t) {
				nullLit.SetResolvedType(t)
			}
		}
	}

	val := g.emitExpr(s.Value)
	if val == nil {
		return
	}

	switch target := s.Target.(type) {
	case *ast.VarExpr:
		alloca, ok := g.namedValues[target.Name]
		if !ok {
			g.errorf(diagnostics.ErrCodegenStmt, "unknown variable: %s", target.Name)
			return
		}

		// Release the old value, retain the new one
		if needsMemoryManagement(val.Type()) {
			g.insertRelease(alloca)
			val = g.insertRetain(val)
		}

		g.block.NewStore(g.coerce(val, alloca.ElemType), alloca)

	case *ast.MemberAccessExpr:
		g.assignToMemberField(target, val)

	case *ast.ArrayIndexExpr:
		elemPtr, elemType := g.arrayElementPtr(target)
		if elemPtr == nil {
			return
		}
		g.block.NewStore(g.coerce(val, elemType), elemPtr)

	default:
		g.errorf(diagnostics.ErrCodegenStmt, "invalid assignment target")
	}
}
