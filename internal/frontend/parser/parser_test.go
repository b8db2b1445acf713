package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyfishxu/aurora/internal/diagnostics"
	"github.com/flyfishxu/aurora/internal/frontend/ast"
	"github.com/flyfishxu/aurora/internal/frontend/lexer"
	"github.com/flyfishxu/aurora/internal/types"
)

func parseSource(t *testing.T, src string) (*ast.Module, *diagnostics.Bag, *types.Registry) {
	t.Helper()
	diag := diagnostics.NewBag()
	registry := types.NewRegistry()
	lex := lexer.New("test.aur", src, diag)
	module := Parse(lex.Tokenize(false), "test.aur", diag, registry)
	return module, diag, registry
}

func mustParse(t *testing.T, src string) *ast.Module {
	t.Helper()
	module, diag, _ := parseSource(t, src)
	require.NotNil(t, module, "parse failed: %s", diag.EmitAllToString())
	require.False(t, diag.HasErrors(), diag.EmitAllToString())
	return module
}

func TestParseFunction(t *testing.T) {
	module := mustParse(t, "fn add(a: int, b: int) -> int { return a + b; }")

	require.Len(t, module.Functions, 1)
	fn := module.Functions[0]
	assert.Equal(t, "add", fn.Proto.Name)
	require.Len(t, fn.Proto.Params, 2)
	assert.True(t, fn.Proto.Params[0].Type.Equals(types.Int))
	assert.True(t, fn.Proto.Return.Equals(types.Int))
	require.Len(t, fn.Body, 1)
}

func TestDefaultsForOmittedAnnotations(t *testing.T) {
	module := mustParse(t, "fn f(x) { }")

	fn := module.Functions[0]
	// Untyped parameters default to double, return defaults to void
	assert.True(t, fn.Proto.Params[0].Type.Equals(types.Double))
	assert.True(t, fn.Proto.Return.Equals(types.Void))
}

func TestPrecedence(t *testing.T) {
	module := mustParse(t, "fn main() -> int { return 2 + 3 * 4; }")

	ret := module.Functions[0].Body[0].(*ast.ReturnStmt)
	add, ok := ret.Value.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, add.Op)

	mul, ok := add.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, mul.Op)
}

func TestTernaryAndCoalesce(t *testing.T) {
	module := mustParse(t, `fn main() -> int {
		let a: int? = null;
		let b = a ?? 5;
		return b > 0 ? b : 0;
	}`)

	body := module.Functions[0].Body
	decl := body[1].(*ast.VarDeclStmt)
	coalesce, ok := decl.Init.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpNullCoalesce, coalesce.Op)

	ret := body[2].(*ast.ReturnStmt)
	_, isTernary := ret.Value.(*ast.TernaryExpr)
	assert.True(t, isTernary)
}

func TestLocalTypeInference(t *testing.T) {
	module := mustParse(t, `fn main() -> int {
		let x: double = 1.5;
		return x;
	}`)

	ret := module.Functions[0].Body[1].(*ast.ReturnStmt)
	varExpr := ret.Value.(*ast.VarExpr)
	assert.True(t, varExpr.Type().Equals(types.Double))
}

func TestOptionalVarNarrowsNull(t *testing.T) {
	module := mustParse(t, "fn main() { let a: int? = null; }")

	decl := module.Functions[0].Body[0].(*ast.VarDeclStmt)
	require.True(t, types.IsOptional(decl.VarType))

	nullLit := decl.Init.(*ast.NullLit)
	assert.True(t, nullLit.Type().Equals(types.NewOptional(types.Int)))
}

func TestPrimaryConstructorDesugars(t *testing.T) {
	module := mustParse(t, "class P(let x: int, let y: int) { }")

	require.Len(t, module.Classes, 1)
	class := module.Classes[0]

	require.Len(t, class.Fields, 2)
	assert.Equal(t, "x", class.Fields[0].Name)
	assert.Equal(t, "y", class.Fields[1].Name)

	require.Len(t, class.Methods, 1)
	ctor := class.Methods[0]
	assert.True(t, ctor.Constructor)
	require.Len(t, ctor.Params, 2)
	// Body assigns each parameter to this.field
	require.Len(t, ctor.Body, 2)
	assign := ctor.Body[0].(*ast.AssignStmt)
	target := assign.Target.(*ast.MemberAccessExpr)
	assert.Equal(t, "x", target.Member)
	_, isThis := target.Object.(*ast.ThisExpr)
	assert.True(t, isThis)
}

func TestImplicitConstructor(t *testing.T) {
	module := mustParse(t, `class Point {
		var x: int = 0
		var y: int = 0
	}`)

	class := module.Classes[0]
	require.Len(t, class.Methods, 1)
	ctor := class.Methods[0]
	assert.True(t, ctor.Constructor)
	assert.Len(t, ctor.Params, 2)
}

func TestExplicitConstructorSuppressesImplicit(t *testing.T) {
	module := mustParse(t, `class C {
		constructor(x: int) { this.v = x; }
		constructor(x: double) { this.v = 100; }
		var v: int = 0
	}`)

	class := module.Classes[0]
	ctors := 0
	for _, m := range class.Methods {
		if m.Constructor {
			ctors++
		}
	}
	assert.Equal(t, 2, ctors)
}

func TestClassCallBecomesNew(t *testing.T) {
	module := mustParse(t, `class P(let x: int, let y: int)
fn main() -> int { let p = P(3, 4); return p.x + p.y; }`)

	decl := module.Functions[0].Body[0].(*ast.VarDeclStmt)
	newExpr, ok := decl.Init.(*ast.NewExpr)
	require.True(t, ok)
	assert.Equal(t, "P", newExpr.ClassName)
	assert.Len(t, newExpr.Args, 2)

	// p's inferred type is the class type, so p.x resolves
	ret := module.Functions[0].Body[1].(*ast.ReturnStmt)
	add := ret.Value.(*ast.BinaryExpr)
	access := add.Left.(*ast.MemberAccessExpr)
	assert.True(t, access.Type().Equals(types.Int))
}

func TestMemberCallReturnTypeRefinement(t *testing.T) {
	module := mustParse(t, `class Counter {
		var n: int = 0
		fn value() -> int { return this.n; }
	}
	fn main() -> int {
		let c = Counter(0);
		return c.value();
	}`)

	ret := module.Functions[0].Body[1].(*ast.ReturnStmt)
	call := ret.Value.(*ast.MemberCallExpr)
	// The class decl is registered, so the type refines to int
	assert.True(t, call.Type().Equals(types.Int))
}

func TestObjectSingleton(t *testing.T) {
	module := mustParse(t, "object Config { var debug: bool = false }")

	class := module.Classes[0]
	assert.True(t, class.Singleton)
}

func TestForLoopWithStep(t *testing.T) {
	module := mustParse(t, "fn main() { for i in 0..10 : 2 { } }")

	forStmt := module.Functions[0].Body[0].(*ast.ForStmt)
	assert.Equal(t, "i", forStmt.VarName)
	assert.NotNil(t, forStmt.Step)
}

func TestPackageAndImports(t *testing.T) {
	module := mustParse(t, `package com.example.app
import "lib/util"
import com.example.helpers
fn main() { }`)

	require.NotNil(t, module.Package)
	assert.Equal(t, "com.example.app", module.Package.Name)
	require.Len(t, module.Imports, 2)
	assert.Equal(t, "lib/util", module.Imports[0].Path)
	assert.Equal(t, "com.example.helpers", module.Imports[1].Path)
}

func TestExternIsIgnoredWithWarning(t *testing.T) {
	module, diag, _ := parseSource(t, "extern printd(x);\nfn main() { }")

	require.NotNil(t, module)
	assert.False(t, diag.HasErrors())
	assert.Equal(t, 1, diag.WarningCount())
	assert.Len(t, module.Functions, 1)
}

func TestParseErrorAborts(t *testing.T) {
	module, diag, _ := parseSource(t, "fn main( { }")

	assert.Nil(t, module)
	require.True(t, diag.HasErrors())
	assert.Equal(t, diagnostics.ErrParse, diag.Diagnostics()[0].Code)
}

func TestNullCheckPostfix(t *testing.T) {
	module := mustParse(t, `fn main() -> int {
		let a: int? = null;
		if a? { return 1; }
		return 0;
	}`)

	ifStmt := module.Functions[0].Body[1].(*ast.IfStmt)
	_, ok := ifStmt.Cond.(*ast.NullCheckExpr)
	assert.True(t, ok)
}

func TestRegistryDeclaration(t *testing.T) {
	_, _, registry := parseSource(t, "class Foo { }\nfn main() { }")

	assert.True(t, registry.IsDeclared("Foo"))
	// Mentioning a type does not declare it
	assert.False(t, registry.IsDeclared("Bar"))
}
