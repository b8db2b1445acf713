package codegen_test

import (
	"testing"

	"github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyfishxu/aurora/internal/builtins"
	"github.com/flyfishxu/aurora/internal/codegen"
	"github.com/flyfishxu/aurora/internal/diagnostics"
	"github.com/flyfishxu/aurora/internal/engine"
	"github.com/flyfishxu/aurora/internal/frontend/lexer"
	"github.com/flyfishxu/aurora/internal/frontend/parser"
	"github.com/flyfishxu/aurora/internal/types"
)

// compileSource runs lex, parse and codegen over a snippet and
// verifies the resulting module.
func compileSource(t *testing.T, src string) *ir.Module {
	t.Helper()

	diag := diagnostics.NewBag()
	registry := types.NewRegistry()

	lex := lexer.New("test.aur", src, diag)
	module := parser.Parse(lex.Tokenize(false), "test.aur", diag, registry)
	require.NotNil(t, module, "parse failed: %s", diag.EmitAllToString())

	gen := codegen.New(registry, diag)
	builtins.Register(gen)
	gen.EmitModule(module)

	require.False(t, diag.HasErrors(), diag.EmitAllToString())
	require.NoError(t, engine.Verify(gen.Module))
	return gen.Module
}

func findFunc(m *ir.Module, name string) *ir.Func {
	for _, fn := range m.Funcs {
		if fn.Name() == name {
			return fn
		}
	}
	return nil
}

func countCalls(m *ir.Module, callee string) int {
	count := 0
	for _, fn := range m.Funcs {
		for _, block := range fn.Blocks {
			for _, inst := range block.Insts {
				if call, ok := inst.(*ir.InstCall); ok {
					if target, ok := call.Callee.(*ir.Func); ok && target.Name() == callee {
						count++
					}
				}
			}
		}
	}
	return count
}

func TestArithmetic(t *testing.T) {
	m := compileSource(t, "fn main() -> int { var x: int = 2 + 3 * 4; return x; }")

	mainFn := findFunc(m, "main")
	require.NotNil(t, mainFn)
	assert.True(t, mainFn.Sig.RetType.Equal(lltypes.I64))

	irText := m.String()
	assert.Contains(t, irText, "mul")
	assert.Contains(t, irText, "add")
}

func TestShortCircuitAnd(t *testing.T) {
	m := compileSource(t, `fn side(x: int) -> bool { return x > 0; }
fn main() -> int { if false && side(1) { return 1; } return 0; }`)

	mainFn := findFunc(m, "main")
	require.NotNil(t, mainFn)

	// Three-block construction with a PHI over the boolean result
	assert.GreaterOrEqual(t, len(mainFn.Blocks), 3)
	irText := m.String()
	assert.Contains(t, irText, "phi")

	// side is never called from the entry (false) path: the entry
	// block contains no call to side
	entry := mainFn.Blocks[0]
	for _, inst := range entry.Insts {
		if call, ok := inst.(*ir.InstCall); ok {
			if target, ok := call.Callee.(*ir.Func); ok {
				assert.NotEqual(t, "side", target.Name())
			}
		}
	}
}

func TestClassWithPrimaryConstructor(t *testing.T) {
	m := compileSource(t, `class P(let x: int, let y: int)
fn main() -> int { let p = P(3, 4); return p.x + p.y; }`)

	// Uniform constructor mangling with parameter tags
	require.NotNil(t, findFunc(m, "P_constructor_i_i"))
	assert.Equal(t, 1, countCalls(m, "P_constructor_i_i"))
	assert.Equal(t, 1, countCalls(m, "malloc"))
}

func TestStructFieldOrderMatchesDeclaration(t *testing.T) {
	m := compileSource(t, `class Mixed {
		var a: int = 0
		var b: double = 0.0
		var c: bool = false
	}
	fn main() -> int { let x = Mixed(1, 2.0, true); return x.a; }`)

	var mixed *lltypes.StructType
	for _, def := range m.TypeDefs {
		if st, ok := def.(*lltypes.StructType); ok && st.Name() == "Mixed" {
			mixed = st
		}
	}
	require.NotNil(t, mixed)
	require.Len(t, mixed.Fields, 3)
	assert.True(t, mixed.Fields[0].Equal(lltypes.I64))
	assert.True(t, mixed.Fields[1].Equal(lltypes.Double))
	assert.True(t, mixed.Fields[2].Equal(lltypes.I1))
}

func TestOptionalNullComparison(t *testing.T) {
	m := compileSource(t, `fn main() -> int {
		let a: int? = null;
		if a == null { return 42; }
		return 0;
	}`)

	irText := m.String()
	// Lowered to extraction of the has_value flag
	assert.Contains(t, irText, "extractvalue")
	// No runtime calls are involved in the comparison
	assert.Equal(t, 0, countCalls(m, "aurora_retain"))
}

func TestArraySum(t *testing.T) {
	m := compileSource(t, `fn main() -> int {
		let a = [10, 20, 30];
		var s: int = 0;
		for i in 0..3 { s = s + a[i]; }
		return s;
	}`)

	assert.Equal(t, 1, countCalls(m, "aurora_array_create"))
	assert.Equal(t, 3, countCalls(m, "aurora_array_set"))
	assert.Equal(t, 1, countCalls(m, "aurora_array_length"))

	// The loop body indexes through the data pointer
	irText := m.String()
	assert.Contains(t, irText, "getelementptr")
}

func TestConstructorOverloading(t *testing.T) {
	m := compileSource(t, `class C {
		constructor(x: int) { this.v = x; }
		constructor(x: double) { this.v = 100; }
		var v: int = 0
	}
	fn main() -> int { let c = C(7); return c.v; }`)

	// Two distinct mangled symbols exist in the module
	require.NotNil(t, findFunc(m, "C_constructor_i"))
	require.NotNil(t, findFunc(m, "C_constructor_d"))

	// The int overload is selected at the construction site
	assert.Equal(t, 1, countCalls(m, "C_constructor_i"))
	assert.Equal(t, 0, countCalls(m, "C_constructor_d"))
}

func TestMethodsTakeThisFirst(t *testing.T) {
	m := compileSource(t, `class Counter {
		var n: int = 0
		fn bump(by: int) -> int { this.n = this.n + by; return this.n; }
	}
	fn main() -> int { let c = Counter(0); return c.bump(5); }`)

	bump := findFunc(m, "Counter_bump")
	require.NotNil(t, bump)
	require.Len(t, bump.Params, 2)
	assert.Equal(t, "this", bump.Params[0].Name())
	assert.True(t, bump.Params[0].Type().Equal(lltypes.I8Ptr))
}

func TestEntryBlockAllocasComeFirst(t *testing.T) {
	m := compileSource(t, `fn main() -> int {
		var a: int = 1;
		if a > 0 { var b: int = 2; return b; }
		return a;
	}`)

	mainFn := findFunc(m, "main")
	require.NotNil(t, mainFn)
	entry := mainFn.Blocks[0]

	// All allocas sit at the top of the entry block, before any
	// other instruction
	seenNonAlloca := false
	allocas := 0
	for _, inst := range entry.Insts {
		if _, ok := inst.(*ir.InstAlloca); ok {
			assert.False(t, seenNonAlloca, "alloca after non-alloca instruction")
			allocas++
		} else {
			seenNonAlloca = true
		}
	}
	// a and b both live in the entry block
	assert.Equal(t, 2, allocas)
}

func TestAssignRetainsAndReleases(t *testing.T) {
	m := compileSource(t, `fn main() -> int {
		var s: string = "a";
		s = "b";
		return 0;
	}`)

	// Old value released, new value retained
	assert.Equal(t, 1, countCalls(m, "aurora_release"))
	assert.Equal(t, 1, countCalls(m, "aurora_retain"))
}

func TestWhileLoopShape(t *testing.T) {
	m := compileSource(t, `fn main() -> int {
		var i: int = 0;
		while i < 10 { i = i + 1; }
		return i;
	}`)

	mainFn := findFunc(m, "main")
	require.NotNil(t, mainFn)
	// cond, body, after on top of entry
	assert.GreaterOrEqual(t, len(mainFn.Blocks), 4)

	// The condition is an integer comparison, not a float one
	irText := m.String()
	assert.Contains(t, irText, "icmp slt")
	assert.NotContains(t, irText, "fcmp one")
}

func TestBreakOutsideLoopIsDiagnosed(t *testing.T) {
	diag := diagnostics.NewBag()
	registry := types.NewRegistry()

	lex := lexer.New("test.aur", "fn main() { break; }", diag)
	module := parser.Parse(lex.Tokenize(false), "test.aur", diag, registry)
	require.NotNil(t, module)

	gen := codegen.New(registry, diag)
	builtins.Register(gen)
	gen.EmitModule(module)

	require.True(t, diag.HasErrors())
	found := false
	for _, d := range diag.Diagnostics() {
		if d.Code == diagnostics.ErrCodegenStmt {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTernaryPromotesIntArm(t *testing.T) {
	m := compileSource(t, `fn main() -> double {
		let x: bool = true;
		return x ? 1 : 2.5;
	}`)

	irText := m.String()
	assert.Contains(t, irText, "sitofp")
	assert.Contains(t, irText, "phi double")
}

func TestMemberAssignmentOnAnyReceiver(t *testing.T) {
	m := compileSource(t, `class Box { var v: int = 0 }
fn main() -> int {
	let b = Box(1);
	b.v = 9;
	return b.v;
}`)

	mainFn := findFunc(m, "main")
	require.NotNil(t, mainFn)
	// Assignment through a non-this receiver stores into the field
	irText := m.String()
	assert.Contains(t, irText, "getelementptr %Box")
}

func TestStdlibBothPrefixesResolve(t *testing.T) {
	m := compileSource(t, `fn main() -> int {
		aurora_println_int(1);
		auroraStdPrintlnInt(2);
		return 0;
	}`)

	assert.Equal(t, 1, countCalls(m, "aurora_println_int"))
	assert.Equal(t, 1, countCalls(m, "auroraStdPrintlnInt"))
}

func TestReturnCoercion(t *testing.T) {
	m := compileSource(t, `fn f() -> double { return 3; }
fn g() -> int { return 2.5; }
fn h() -> bool { return 1; }
fn main() -> int { return 0; }`)

	irText := m.String()
	assert.Contains(t, irText, "sitofp")
	assert.Contains(t, irText, "fptosi")
	assert.Contains(t, irText, "icmp ne")
}
