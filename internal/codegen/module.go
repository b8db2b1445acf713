package codegen

import (
	"github.com/llir/llvm/ir"

	"github.com/flyfishxu/aurora/internal/frontend/ast"
	"github.com/flyfishxu/aurora/internal/types"
)

// EmitModule lowers one parsed module into the IR module. Class
// structs are created before any method body so new and this can
// reference any class; function prototypes are declared before any
// function body so call order does not matter.
func (g *Generator) EmitModule(module *ast.Module) {
	for _, decl := range module.Classes {
		g.emitClassStruct(decl)
	}
	for _, decl := range module.Classes {
		g.declareClassMethods(decl)
	}
	for _, fn := range module.Functions {
		g.declarePrototype(fn.Proto)
	}

	for _, decl := range module.Classes {
		g.emitClassMethods(decl)
	}
	for _, fn := range module.Functions {
		g.emitFunction(fn)
	}
}

// declarePrototype declares the function symbol without a body.
func (g *Generator) declarePrototype(proto *ast.Prototype) *ir.Func {
	if existing := g.function(proto.Name); existing != nil {
		return existing
	}

	params := make([]*ir.Param, len(proto.Params))
	for i, p := range proto.Params {
		params[i] = ir.NewParam(p.Name, p.Type.LLVM())
	}

	fn := g.Module.NewFunc(proto.Name, proto.Return.LLVM(), params...)
	g.setFunction(proto.Name, fn)
	return fn
}

func (g *Generator) emitFunction(function *ast.Function) *ir.Func {
	proto := function.Proto
	fn := g.declarePrototype(proto)
	if len(fn.Blocks) > 0 {
		return fn
	}

	g.fn = fn
	g.entry = fn.NewBlock("entry")
	g.block = g.entry
	g.resetLocalNames(fn)

	g.pushReturnType(proto.Return)
	g.pushScope()

	g.namedValues = make(map[string]*ir.InstAlloca)
	g.varTypes = make(map[string]types.Type)

	// Spill parameters into entry allocas so they behave like locals
	for i, p := range proto.Params {
		alloca := g.createEntryBlockAlloca(p.Name+".addr", fn.Params[i].Type())
		g.block.NewStore(fn.Params[i], alloca)
		g.namedValues[p.Name] = alloca
		g.varTypes[p.Name] = p.Type
	}

	g.emitStmts(function.Body)

	if g.block != nil && g.block.Term == nil {
		g.releaseAllInScope()
		if proto.Return.Kind() == types.KindVoid {
			g.block.NewRet(nil)
		} else {
			g.block.NewUnreachable()
		}
	}

	g.popScope()
	g.popReturnType()

	return fn
}
