package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/flyfishxu/aurora/internal/diagnostics"
	"github.com/flyfishxu/aurora/internal/frontend/ast"
	"github.com/flyfishxu/aurora/internal/types"
)

// mangleMethod builds the symbol name for a regular method.
func mangleMethod(className, method string) string {
	return className + "_" + method
}

// mangleConstructor builds the symbol name for a constructor. The
// rule is uniform: parameter tags are always appended, at both the
// definition and the construction site.
func mangleConstructor(className string, paramTypes []types.Type) string {
	name := className + "_constructor"
	for _, t := range paramTypes {
		name += "_" + t.Mangled()
	}
	return name
}

func paramTypeList(params []ast.Parameter) []types.Type {
	list := make([]types.Type, len(params))
	for i, p := range params {
		list[i] = p.Type
	}
	return list
}

// classDecl resolves a class name to its parsed declaration through
// the registry back-pointer.
func (g *Generator) classDecl(name string) *ast.ClassDecl {
	decl, _ := g.registry.Class(name).Decl.(*ast.ClassDecl)
	return decl
}

// structType creates or reuses the named struct for a class, with
// fields in declaration order.
func (g *Generator) structType(decl *ast.ClassDecl) *lltypes.StructType {
	if st, ok := g.structTypes[decl.Name]; ok {
		return st
	}

	fields := make([]lltypes.Type, len(decl.Fields))
	for i, field := range decl.Fields {
		fields[i] = field.FieldType.LLVM()
	}

	st := lltypes.NewStruct(fields...)
	g.Module.NewTypeDef(decl.Name, st)
	g.structTypes[decl.Name] = st
	return st
}

// resolveClassOf walks an object expression to its class type: the
// static type first, then a construction expression, then the
// generator's variable registry.
func (g *Generator) resolveClassOf(obj ast.Expression) *types.Class {
	if ct, ok := obj.Type().(*types.Class); ok {
		return ct
	}
	if newExpr, ok := obj.(*ast.NewExpr); ok {
		if ct, ok := newExpr.ClassType.(*types.Class); ok {
			return ct
		}
	}
	if varExpr, ok := obj.(*ast.VarExpr); ok {
		if t, found := g.varTypes[varExpr.Name]; found {
			if ct, ok := t.(*types.Class); ok {
				return ct
			}
		}
	}
	return nil
}

// structPtr bitcasts an opaque instance pointer to the class struct
// pointer for field addressing.
func (g *Generator) structPtr(objPtr value.Value, st *lltypes.StructType) value.Value {
	want := lltypes.NewPointer(st)
	if objPtr.Type().Equal(want) {
		return objPtr
	}
	cast := g.block.NewBitCast(objPtr, want)
	g.nameValue(cast, "instance")
	return cast
}

// fieldPtr computes the address of a field from its declaration
// order index.
func (g *Generator) fieldPtr(objPtr value.Value, decl *ast.ClassDecl, member string) (value.Value, types.Type) {
	idx := decl.FieldIndex(member)
	if idx < 0 {
		g.errorf(diagnostics.ErrCodegenClass, "field not found: %s in class %s", member, decl.Name)
		return nil, nil
	}

	st := g.structType(decl)
	typed := g.structPtr(objPtr, st)

	gep := g.block.NewGetElementPtr(st, typed,
		constant.NewInt(lltypes.I32, 0),
		constant.NewInt(lltypes.I32, int64(idx)))
	g.nameValue(gep, member)
	return gep, decl.Fields[idx].FieldType
}

func (g *Generator) loadField(objPtr value.Value, decl *ast.ClassDecl, member string, fieldType types.Type) value.Value {
	ptr, _ := g.fieldPtr(objPtr, decl, member)
	if ptr == nil {
		return nil
	}
	load := g.block.NewLoad(fieldType.LLVM(), ptr)
	g.nameValue(load, member)
	return load
}

func (g *Generator) emitThis(e *ast.ThisExpr) value.Value {
	thisAlloca, ok := g.namedValues["this"]
	if !ok {
		return g.errorf(diagnostics.ErrCodegenClass, "'this' used outside of method context")
	}
	load := g.block.NewLoad(thisAlloca.ElemType, thisAlloca)
	g.nameValue(load, "this")
	return load
}

func (g *Generator) emitMemberAccess(e *ast.MemberAccessExpr) value.Value {
	if _, isThis := e.Object.(*ast.ThisExpr); isThis {
		// Class context comes from the dedicated stack, not the
		// mangled function name
		className := g.currentClassName()
		if className == "" {
			return g.errorf(diagnostics.ErrCodegenClass, "'this' member access outside of class context")
		}

		decl := g.classDecl(className)
		if decl == nil {
			return g.errorf(diagnostics.ErrCodegenClass, "class declaration not found: %s", className)
		}

		thisPtr := g.emitThis(e.Object.(*ast.ThisExpr))
		if thisPtr == nil {
			return nil
		}

		field := decl.FindField(e.Member)
		if field == nil {
			return g.errorf(diagnostics.ErrCodegenClass, "field not found: %s in class %s", e.Member, className)
		}
		return g.loadField(thisPtr, decl, e.Member, field.FieldType)
	}

	classType := g.resolveClassOf(e.Object)
	if classType == nil {
		return g.errorf(diagnostics.ErrCodegenClass, "cannot determine class type for member access: %s", e.Member)
	}

	decl := g.classDecl(classType.Name)
	if decl == nil {
		return g.errorf(diagnostics.ErrCodegenClass, "class declaration not found: %s", classType.Name)
	}

	field := decl.FindField(e.Member)
	if field == nil {
		return g.errorf(diagnostics.ErrCodegenClass, "field not found: %s in class %s", e.Member, classType.Name)
	}

	objPtr := g.emitExpr(e.Object)
	if objPtr == nil {
		return nil
	}
	return g.loadField(objPtr, decl, e.Member, field.FieldType)
}

// assignToMemberField stores into obj.field for any object receiver.
func (g *Generator) assignToMemberField(target *ast.MemberAccessExpr, val value.Value) {
	var decl *ast.ClassDecl
	var objPtr value.Value

	if _, isThis := target.Object.(*ast.ThisExpr); isThis {
		className := g.currentClassName()
		if className == "" {
			g.errorf(diagnostics.ErrCodegenClass, "'this' member assignment outside of class context")
			return
		}
		decl = g.classDecl(className)
		objPtr = g.emitThis(target.Object.(*ast.ThisExpr))
	} else {
		classType := g.resolveClassOf(target.Object)
		if classType == nil {
			g.errorf(diagnostics.ErrCodegenClass, "cannot determine class type for member assignment: %s", target.Member)
			return
		}
		decl = g.classDecl(classType.Name)
		objPtr = g.emitExpr(target.Object)
	}

	if decl == nil {
		g.errorf(diagnostics.ErrCodegenClass, "class declaration not found for member assignment")
		return
	}
	if objPtr == nil {
		return
	}

	ptr, fieldType := g.fieldPtr(objPtr, decl, target.Member)
	if ptr == nil {
		return
	}
	g.block.NewStore(g.coerce(val, fieldType.LLVM()), ptr)
}

func (g *Generator) emitMemberCall(e *ast.MemberCallExpr) value.Value {
	var decl *ast.ClassDecl

	if _, isThis := e.Object.(*ast.ThisExpr); isThis {
		decl = g.classDecl(g.currentClassName())
	} else if classType := g.resolveClassOf(e.Object); classType != nil {
		decl = g.classDecl(classType.Name)
	}

	if decl == nil {
		return g.errorf(diagnostics.ErrCodegenClass, "cannot determine class type for method call: %s", e.Method)
	}

	method := decl.FindMethod(e.Method)
	if method == nil {
		return g.errorf(diagnostics.ErrCodegenClass, "method not found: %s", e.Method)
	}

	var mangled string
	if method.Constructor {
		mangled = mangleConstructor(decl.Name, paramTypeList(method.Params))
	} else {
		mangled = mangleMethod(decl.Name, e.Method)
	}

	fn := g.function(mangled)
	if fn == nil {
		return g.errorf(diagnostics.ErrCodegenClass, "method function not found: %s", mangled)
	}

	objPtr := g.emitExpr(e.Object)
	if objPtr == nil {
		return nil
	}

	args := make([]value.Value, 0, len(e.Args)+1)
	args = append(args, objPtr)

	for idx, arg := range e.Args {
		expected := fn.Params[idx+1].Type()
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

	call := g.block.NewCall(fn, args...)
	if !fn.Sig.RetType.Equal(lltypes.Void) {
		g.nameValue(call, "calltmp")
	}
	return call
}

// emitNew allocates storage for a class instance, runs the field
// initializers (or zero fill), then dispatches to the constructor
// selected by signature-based overload resolution.
func (g *Generator) emitNew(e *ast.NewExpr) value.Value {
	decl := g.classDecl(e.ClassName)
	if decl == nil {
		return g.errorf(diagnostics.ErrCodegenClass, "class not found: %s", e.ClassName)
	}

	st := g.structType(decl)
	size := constant.NewInt(lltypes.I64, allocSize(st))

	objPtr := g.block.NewCall(g.runtimeMalloc(), size)
	g.nameValue(objPtr, "newtmp")

	// Default-initialize every field in declaration order
	for idx, field := range decl.Fields {
		typed := g.structPtr(objPtr, st)
		fieldPtr := g.block.NewGetElementPtr(st, typed,
			constant.NewInt(lltypes.I32, 0),
			constant.NewInt(lltypes.I32, int64(idx)))

		if field.Init != nil {
			initVal := g.emitExpr(field.Init)
			if initVal == nil {
				return nil
			}
			g.block.NewStore(g.coerce(initVal, field.FieldType.LLVM()), fieldPtr)
		} else {
			g.block.NewStore(constant.NewZeroInitializer(field.FieldType.LLVM()), fieldPtr)
		}
	}

	// Overload resolution on the static argument types
	argTypes := make([]types.Type, len(e.Args))
	for i, arg := range e.Args {
		argTypes[i] = arg.Type()
	}

	ctor := decl.FindMethodBySig("constructor", argTypes)
	if ctor == nil && len(e.Args) == 0 {
		ctor = decl.FindMethod("constructor")
	}

	if ctor != nil {
		mangled := mangleConstructor(decl.Name, paramTypeList(ctor.Params))
		if ctorFn := g.function(mangled); ctorFn != nil {
			args := make([]value.Value, 0, len(e.Args)+1)
			args = append(args, objPtr)

			for idx, arg := range e.Args {
				expected := ctorFn.Params[idx+1].Type()
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
			g.block.NewCall(ctorFn, args...)
		}
	}

	return objPtr
}

// emitClassStruct creates the struct type for a class. All structs
// are created before any method body so new and this can reference
// any class.
func (g *Generator) emitClassStruct(decl *ast.ClassDecl) {
	g.structType(decl)
}

// declareClassMethods declares the symbol of every method so call
// sites in other classes resolve regardless of emission order.
func (g *Generator) declareClassMethods(decl *ast.ClassDecl) {
	for i := range decl.Methods {
		g.declareMethod(decl, &decl.Methods[i])
	}
}

// emitClassMethods emits every method of a class.
func (g *Generator) emitClassMethods(decl *ast.ClassDecl) {
	for i := range decl.Methods {
		g.emitMethod(decl, &decl.Methods[i])
	}
}

func methodSymbol(decl *ast.ClassDecl, method *ast.MethodDecl) string {
	if method.Constructor {
		return mangleConstructor(decl.Name, paramTypeList(method.Params))
	}
	return mangleMethod(decl.Name, method.Name)
}

// declareMethod creates the function symbol with an implicit first
// 'this' parameter, without a body.
func (g *Generator) declareMethod(decl *ast.ClassDecl, method *ast.MethodDecl) *ir.Func {
	mangled := methodSymbol(decl, method)
	if existing := g.function(mangled); existing != nil {
		return existing
	}

	classType := g.registry.Class(decl.Name)

	params := make([]*ir.Param, 0, len(method.Params)+1)
	params = append(params, ir.NewParam("this", classType.LLVM()))
	for _, p := range method.Params {
		params = append(params, ir.NewParam(p.Name, p.Type.LLVM()))
	}

	fn := g.Module.NewFunc(mangled, method.Return.LLVM(), params...)
	g.setFunction(mangled, fn)
	return fn
}

func (g *Generator) emitMethod(decl *ast.ClassDecl, method *ast.MethodDecl) *ir.Func {
	fn := g.declareMethod(decl, method)
	if len(fn.Blocks) > 0 {
		return fn
	}

	classType := g.registry.Class(decl.Name)

	g.fn = fn
	g.entry = fn.NewBlock("entry")
	g.block = g.entry
	g.resetLocalNames(fn)

	g.pushClass(decl.Name)
	g.pushReturnType(method.Return)
	g.pushScope()

	g.namedValues = make(map[string]*ir.InstAlloca)
	g.varTypes = make(map[string]types.Type)

	// Spill this and the parameters into entry allocas
	thisAlloca := g.createEntryBlockAlloca("this.addr", fn.Params[0].Type())
	g.block.NewStore(fn.Params[0], thisAlloca)
	g.namedValues["this"] = thisAlloca
	g.varTypes["this"] = classType

	for i, p := range method.Params {
		alloca := g.createEntryBlockAlloca(p.Name+".addr", fn.Params[i+1].Type())
		g.block.NewStore(fn.Params[i+1], alloca)
		g.namedValues[p.Name] = alloca
		g.varTypes[p.Name] = p.Type
	}

	g.emitStmts(method.Body)

	// A body that falls off the end returns void or a zero value
	if g.block != nil && g.block.Term == nil {
		g.releaseAllInScope()
		if method.Return.Kind() == types.KindVoid {
			g.block.NewRet(nil)
		} else {
			g.block.NewRet(constant.NewZeroInitializer(method.Return.LLVM()))
		}
	}

	g.popScope()
	g.popReturnType()
	g.popClass()

	return fn
}
