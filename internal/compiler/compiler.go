package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xyproto/env/v2"

	"github.com/flyfishxu/aurora/colors"
	"github.com/flyfishxu/aurora/internal/builtins"
	"github.com/flyfishxu/aurora/internal/codegen"
	"github.com/flyfishxu/aurora/internal/diagnostics"
	"github.com/flyfishxu/aurora/internal/engine"
	"github.com/flyfishxu/aurora/internal/frontend/lexer"
	"github.com/flyfishxu/aurora/internal/frontend/parser"
	"github.com/flyfishxu/aurora/internal/loader"
	"github.com/flyfishxu/aurora/internal/project"
	"github.com/flyfishxu/aurora/internal/types"
)

// Options for a single compilation.
type Options struct {
	EntryFile string

	// EmitLLVM writes the textual IR to Output instead of running.
	EmitLLVM bool
	Output   string

	// Args are forwarded to the compiled program.
	Args []string

	Debug bool
}

// Result of a compilation.
type Result struct {
	Success  bool
	ExitCode int
}

// Compiler bundles the collaborators of one compilation: the type
// registry, the diagnostic bag and the code generation context. It is
// a plain value, not process state, so tests get isolation.
type Compiler struct {
	Registry    *types.Registry
	Diagnostics *diagnostics.Bag
	Generator   *codegen.Generator
}

// NewCompiler creates a compiler with fresh collaborators and the
// standard library prototypes registered.
func NewCompiler() *Compiler {
	registry := types.NewRegistry()
	diag := diagnostics.NewBag()
	gen := codegen.New(registry, diag)
	builtins.Register(gen)

	return &Compiler{
		Registry:    registry,
		Diagnostics: diag,
		Generator:   gen,
	}
}

// Compile runs the full pipeline on the entry file: lex, parse, load
// imports, generate code, then either emit IR or execute main.
// Diagnostics are emitted to stderr before returning.
func Compile(opts *Options) Result {
	c := NewCompiler()

	result := c.compile(opts)

	c.Diagnostics.EmitAll()
	return result
}

func (c *Compiler) compile(opts *Options) Result {
	content, err := os.ReadFile(opts.EntryFile)
	if err != nil {
		c.Diagnostics.Add(
			diagnostics.NewFatal(fmt.Sprintf("cannot open file: %s", opts.EntryFile)).
				WithCode(diagnostics.ErrCannotOpenFile),
		)
		return Result{Success: false, ExitCode: 1}
	}

	c.Diagnostics.AddSourceContent(opts.EntryFile, string(content))

	if opts.Debug {
		colors.CYAN.Printf("\n[Phase 1] Lex + Parse\n")
	}

	lex := lexer.New(opts.EntryFile, string(content), c.Diagnostics)
	toks := lex.Tokenize(false)

	module := parser.Parse(toks, opts.EntryFile, c.Diagnostics, c.Registry)
	if module == nil || c.Diagnostics.HasErrors() {
		return Result{Success: false, ExitCode: 1}
	}

	// Imports compile fully before the importing module's own
	// definitions
	if opts.Debug {
		colors.CYAN.Printf("\n[Phase 2] Module loading\n")
	}

	searchPaths := moduleSearchPaths(opts.EntryFile)
	modLoader := loader.New(c.Registry, c.Diagnostics, c.Generator, searchPaths, opts.Debug)
	for _, imp := range module.Imports {
		if err := modLoader.Load(imp.Path, opts.EntryFile); err != nil {
			c.Diagnostics.Add(
				diagnostics.NewError(err.Error()).
					WithCode(diagnostics.ErrModuleNotFound),
			)
			return Result{Success: false, ExitCode: 1}
		}
	}

	if opts.Debug {
		colors.CYAN.Printf("\n[Phase 3] Code generation\n")
	}

	c.Generator.EmitModule(module)
	if c.Diagnostics.HasErrors() {
		return Result{Success: false, ExitCode: 1}
	}

	// Verification gates every later step
	if err := engine.Verify(c.Generator.Module); err != nil {
		c.Diagnostics.Add(
			diagnostics.NewError(err.Error()).
				WithCode(diagnostics.ErrVerifyModule),
		)
		return Result{Success: false, ExitCode: 1}
	}

	if opts.EmitLLVM {
		output := opts.Output
		if output == "" {
			output = "output.ll"
		}
		if err := engine.EmitIR(c.Generator.Module, output); err != nil {
			c.Diagnostics.Add(
				diagnostics.NewError(err.Error()).
					WithCode(diagnostics.ErrEngineFailure),
			)
			return Result{Success: false, ExitCode: 1}
		}
		if opts.Debug {
			colors.GREEN.Printf("Generated LLVM IR: %s\n", output)
		}
		return Result{Success: true, ExitCode: 0}
	}

	if opts.Debug {
		colors.CYAN.Printf("\n[Phase 4] Execution\n")
	}

	exitCode, err := engine.Run(c.Generator.Module, &engine.Options{
		Args:  opts.Args,
		Debug: opts.Debug,
	})
	if err != nil {
		c.Diagnostics.Add(
			diagnostics.NewError(err.Error()).
				WithCode(diagnostics.ErrEngineFailure),
		)
		return Result{Success: false, ExitCode: 1}
	}

	if opts.Debug {
		colors.GREEN.Printf("Program completed with exit code: %d\n", exitCode)
	}

	return Result{Success: true, ExitCode: exitCode}
}

// moduleSearchPaths assembles the import resolution roots: the
// project manifest's paths, the conventional src directory, the
// sysroot and its bundled stdlib.
func moduleSearchPaths(entryFile string) []string {
	var paths []string

	if proj, err := project.Find(entryFile); err == nil && proj != nil {
		paths = append(paths, proj.SearchPaths...)
		if proj.Root != "" {
			paths = append(paths, proj.Root, filepath.Join(proj.Root, "src"))
		}
	}

	paths = append(paths, ".", "src")

	sysroot := Sysroot()
	if sysroot != "" {
		paths = append(paths, sysroot, filepath.Join(sysroot, "stdlib", "aurora"))
	}

	return paths
}

// Sysroot resolves the Aurora installation root: AURORA_HOME first,
// then the executable's directory, then the working directory.
func Sysroot() string {
	if home := env.Str("AURORA_HOME"); home != "" {
		return home
	}
	if execPath, err := os.Executable(); err == nil {
		return filepath.Dir(execPath)
	}
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return "."
}
