package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/flyfishxu/aurora/internal/diagnostics"
	"github.com/flyfishxu/aurora/internal/types"
)

// loopContext is a (break, continue) target pair for the innermost
// loop. break/continue statements resolve against the top of stack.
type loopContext struct {
	breakTarget    *ir.Block
	continueTarget *ir.Block
}

// trackedVar is a scope-tracked alloca released at scope exit.
type trackedVar struct {
	name   string
	alloca *ir.InstAlloca
}

type scope struct {
	variables []trackedVar
}

// Generator walks the AST emitting LLVM IR into a single module. It
// owns the symbol tables, the loop and function-return stacks, the
// class-context stack and the per-scope retain/release tracking.
type Generator struct {
	Module   *ir.Module
	registry *types.Registry
	diag     *diagnostics.Bag

	fn    *ir.Func
	entry *ir.Block
	block *ir.Block

	namedValues map[string]*ir.InstAlloca
	varTypes    map[string]types.Type
	functions   map[string]*ir.Func

	loopStack  []loopContext
	retStack   []types.Type
	scopeStack []scope
	classStack []string

	structTypes map[string]*lltypes.StructType
	strCounter  int

	// usedNames numbers repeated local value names within the
	// current function so every identifier prints uniquely
	usedNames map[string]int
}

func New(registry *types.Registry, diag *diagnostics.Bag) *Generator {
	return &Generator{
		Module:      ir.NewModule(),
		registry:    registry,
		diag:        diag,
		namedValues: make(map[string]*ir.InstAlloca),
		varTypes:    make(map[string]types.Type),
		functions:   make(map[string]*ir.Func),
		structTypes: make(map[string]*lltypes.StructType),
		usedNames:   make(map[string]int),
	}
}

// resetLocalNames starts a fresh per-function namespace, reserving
// the parameter names.
func (g *Generator) resetLocalNames(fn *ir.Func) {
	g.usedNames = make(map[string]int)
	for _, param := range fn.Params {
		g.usedNames[param.Name()]++
	}
}

// nameValue assigns a function-unique local name, numbering repeats
// the way the LLVM builder does.
func (g *Generator) nameValue(v value.Named, name string) {
	n := g.usedNames[name]
	g.usedNames[name]++
	if n > 0 {
		name = fmt.Sprintf("%s%d", name, n)
	}
	v.SetName(name)
}

// errorf records a codegen diagnostic and returns nil so callers can
// propagate failure without extra plumbing.
func (g *Generator) errorf(code, format string, args ...any) value.Value {
	g.diag.Add(
		diagnostics.NewError(fmt.Sprintf(format, args...)).
			WithCode(code),
	)
	return nil
}

// Function table

func (g *Generator) function(name string) *ir.Func {
	if f, ok := g.functions[name]; ok {
		return f
	}
	for _, f := range g.Module.Funcs {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

func (g *Generator) setFunction(name string, f *ir.Func) {
	g.functions[name] = f
}

// Loop contexts

func (g *Generator) pushLoopContext(breakTarget, continueTarget *ir.Block) {
	g.loopStack = append(g.loopStack, loopContext{breakTarget, continueTarget})
}

func (g *Generator) popLoopContext() {
	if len(g.loopStack) > 0 {
		g.loopStack = g.loopStack[:len(g.loopStack)-1]
	}
}

func (g *Generator) currentLoop() *loopContext {
	if len(g.loopStack) == 0 {
		return nil
	}
	return &g.loopStack[len(g.loopStack)-1]
}

// Function return types

func (g *Generator) pushReturnType(t types.Type) {
	g.retStack = append(g.retStack, t)
}

func (g *Generator) popReturnType() {
	if len(g.retStack) > 0 {
		g.retStack = g.retStack[:len(g.retStack)-1]
	}
}

func (g *Generator) currentReturnType() types.Type {
	if len(g.retStack) == 0 {
		return nil
	}
	return g.retStack[len(g.retStack)-1]
}

// Class context

func (g *Generator) pushClass(name string) {
	g.classStack = append(g.classStack, name)
}

func (g *Generator) popClass() {
	if len(g.classStack) > 0 {
		g.classStack = g.classStack[:len(g.classStack)-1]
	}
}

func (g *Generator) currentClassName() string {
	if len(g.classStack) == 0 {
		return ""
	}
	return g.classStack[len(g.classStack)-1]
}

// Scopes and reference counting

func (g *Generator) pushScope() {
	g.scopeStack = append(g.scopeStack, scope{})
}

func (g *Generator) popScope() {
	// Release instructions are inserted explicitly before the
	// terminator; popping only drops the bookkeeping.
	if len(g.scopeStack) > 0 {
		g.scopeStack = g.scopeStack[:len(g.scopeStack)-1]
	}
}

// trackVariable registers an alloca for release at scope exit.
func (g *Generator) trackVariable(name string, alloca *ir.InstAlloca) {
	if len(g.scopeStack) == 0 {
		return
	}
	top := &g.scopeStack[len(g.scopeStack)-1]
	top.variables = append(top.variables, trackedVar{name, alloca})
}

// releaseAllInScope emits aurora_release calls for the current
// scope's tracked variables in reverse declaration order. Nothing is
// emitted when the block already has a terminator.
func (g *Generator) releaseAllInScope() {
	if len(g.scopeStack) == 0 || g.block == nil || g.block.Term != nil {
		return
	}
	vars := g.scopeStack[len(g.scopeStack)-1].variables
	for i := len(vars) - 1; i >= 0; i-- {
		g.insertRelease(vars[i].alloca)
	}
}

// insertRelease releases the heap pointer held in an alloca. Allocas
// holding non-pointer values (numbers, array pairs, optionals) are
// skipped: their payloads are owned by the runtime, not the slot.
func (g *Generator) insertRelease(alloca *ir.InstAlloca) {
	if _, ok := alloca.ElemType.(*lltypes.PointerType); !ok {
		return
	}
	loaded := g.block.NewLoad(alloca.ElemType, alloca)
	g.nameValue(loaded, "loaded_for_release")
	g.block.NewCall(g.runtimeRelease(), loaded)
}

// insertRetain increments the reference count of a heap pointer and
// returns the retained value. Non-pointer values pass through.
func (g *Generator) insertRetain(v value.Value) value.Value {
	if _, ok := v.Type().(*lltypes.PointerType); !ok {
		return v
	}
	retained := g.block.NewCall(g.runtimeRetain(), v)
	g.nameValue(retained, "retained")
	return retained
}

// needsMemoryManagement reports whether values of the given IR type
// carry a reference-count header.
func needsMemoryManagement(t lltypes.Type) bool {
	_, ok := t.(*lltypes.PointerType)
	return ok
}

// createEntryBlockAlloca inserts an alloca at the top of the current
// function's entry block so it dominates every use.
func (g *Generator) createEntryBlockAlloca(name string, t lltypes.Type) *ir.InstAlloca {
	alloca := ir.NewAlloca(t)
	g.nameValue(alloca, name)

	insts := g.entry.Insts
	idx := 0
	for idx < len(insts) {
		if _, ok := insts[idx].(*ir.InstAlloca); !ok {
			break
		}
		idx++
	}

	rest := make([]ir.Instruction, len(insts[idx:]))
	copy(rest, insts[idx:])
	g.entry.Insts = append(append(insts[:idx:idx], alloca), rest...)

	return alloca
}

// newBlock appends a fresh basic block to the current function.
func (g *Generator) newBlock(name string) *ir.Block {
	return g.fn.NewBlock(g.uniqueName(name))
}

func (g *Generator) uniqueName(prefix string) string {
	g.strCounter++
	return fmt.Sprintf("%s.%d", prefix, g.strCounter)
}
