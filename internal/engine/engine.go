package engine

import (
	"embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/xyproto/env/v2"

	"github.com/flyfishxu/aurora/colors"
)

//go:embed runtime/aurora_runtime.c runtime/aurora_stdlib.c
var runtimeSources embed.FS

// mainKind classifies the declared return type of main, which decides
// how its result becomes the process exit code.
type mainKind int

const (
	mainInt mainKind = iota
	mainDouble
	mainVoid
)

// Options configures compilation and execution of an emitted module.
type Options struct {
	// Compiler is the C compiler driver used to realize the IR.
	// Defaults to AURORA_CC, then clang.
	Compiler string

	// WorkDir keeps intermediate artifacts when set; otherwise a
	// temporary directory is used and removed.
	WorkDir string

	// Args are forwarded to the compiled program.
	Args []string

	Debug bool
}

// EmitIR writes the textual IR of the module to path.
func EmitIR(m *ir.Module, path string) error {
	return os.WriteFile(path, []byte(m.String()), 0644)
}

// Run verifies the module, realizes it together with the embedded
// runtime and standard library, executes main, and returns its value
// as the process exit code.
//
// The IR is executed by compiling it with the system C compiler and
// running the result on the calling thread's behalf; the runtime and
// stdlib definitions satisfy every aurora_/auroraStd symbol the
// generator referenced.
func Run(m *ir.Module, opts *Options) (int, error) {
	if opts == nil {
		opts = &Options{}
	}

	if err := Verify(m); err != nil {
		return 1, err
	}

	mainFn := FindMain(m)
	if mainFn == nil {
		return 1, fmt.Errorf("no 'main' function defined")
	}

	kind, err := classifyMain(mainFn)
	if err != nil {
		return 1, err
	}

	// main is renamed so the driver below owns the process entry
	// point and can convert the declared return type to an exit code
	mainFn.SetName("aurora_user_main")

	workDir := opts.WorkDir
	if workDir == "" {
		tmp, err := os.MkdirTemp("", "aurora-*")
		if err != nil {
			return 1, fmt.Errorf("cannot create work directory: %w", err)
		}
		defer os.RemoveAll(tmp)
		workDir = tmp
	}

	irPath := filepath.Join(workDir, "module.ll")
	if err := EmitIR(m, irPath); err != nil {
		return 1, fmt.Errorf("cannot write IR: %w", err)
	}

	sources := []string{irPath}
	for _, name := range []string{"runtime/aurora_runtime.c", "runtime/aurora_stdlib.c"} {
		content, err := runtimeSources.ReadFile(name)
		if err != nil {
			return 1, fmt.Errorf("embedded runtime missing: %w", err)
		}
		path := filepath.Join(workDir, filepath.Base(name))
		if err := os.WriteFile(path, content, 0644); err != nil {
			return 1, err
		}
		sources = append(sources, path)
	}

	driverPath := filepath.Join(workDir, "driver.c")
	if err := os.WriteFile(driverPath, []byte(driverSource(kind)), 0644); err != nil {
		return 1, err
	}
	sources = append(sources, driverPath)

	binPath := filepath.Join(workDir, "program")

	cc := opts.Compiler
	if cc == "" {
		cc = env.Str("AURORA_CC", "clang")
	}

	args := []string{"-Wno-override-module", "-o", binPath}
	args = append(args, sources...)
	args = append(args, "-lm")

	if opts.Debug {
		colors.CYAN.Printf("Realizing module: %s %v\n", cc, args)
	}

	cmd := exec.Command(cc, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return 1, fmt.Errorf("module realization failed: %w", err)
	}

	prog := exec.Command(binPath, opts.Args...)
	prog.Stdin = os.Stdin
	prog.Stdout = os.Stdout
	prog.Stderr = os.Stderr

	if err := prog.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return 1, fmt.Errorf("program execution failed: %w", err)
	}

	return 0, nil
}

func classifyMain(mainFn *ir.Func) (mainKind, error) {
	switch ret := mainFn.Sig.RetType.(type) {
	case *lltypes.IntType:
		return mainInt, nil
	case *lltypes.FloatType:
		return mainDouble, nil
	case *lltypes.VoidType:
		return mainVoid, nil
	default:
		return mainInt, fmt.Errorf("unsupported main return type: %s", ret)
	}
}

// driverSource is the process entry point calling the user's main
// with the signature matching its declared return type.
func driverSource(kind mainKind) string {
	switch kind {
	case mainDouble:
		return `extern double aurora_user_main(void);
extern void aurora_sys_set_args(int argc, char** argv);
int main(int argc, char** argv) {
    aurora_sys_set_args(argc, argv);
    return (int)aurora_user_main();
}
`
	case mainVoid:
		return `extern void aurora_user_main(void);
extern void aurora_sys_set_args(int argc, char** argv);
int main(int argc, char** argv) {
    aurora_sys_set_args(argc, argv);
    aurora_user_main();
    return 0;
}
`
	default:
		return `extern long long aurora_user_main(void);
extern void aurora_sys_set_args(int argc, char** argv);
int main(int argc, char** argv) {
    aurora_sys_set_args(argc, argv);
    return (int)aurora_user_main();
}
`
	}
}
