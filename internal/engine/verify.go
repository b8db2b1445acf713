package engine

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir"
)

// Verify performs structural verification of the module before any
// execution step: every defined function must have all of its basic
// blocks terminated, an entry block, and call sites must agree with
// their callee's arity. Returns an error describing every violation.
func Verify(m *ir.Module) error {
	var problems []string

	for _, fn := range m.Funcs {
		if len(fn.Blocks) == 0 {
			continue // declaration only
		}

		for _, block := range fn.Blocks {
			if block.Term == nil {
				problems = append(problems,
					fmt.Sprintf("function %s: block %s has no terminator", fn.Name(), block.LocalName))
			}
		}

		for _, block := range fn.Blocks {
			for _, inst := range block.Insts {
				call, ok := inst.(*ir.InstCall)
				if !ok {
					continue
				}
				callee, ok := call.Callee.(*ir.Func)
				if !ok {
					continue
				}
				if !callee.Sig.Variadic && len(call.Args) != len(callee.Params) {
					problems = append(problems,
						fmt.Sprintf("function %s: call to %s has %d args, want %d",
							fn.Name(), callee.Name(), len(call.Args), len(callee.Params)))
				}
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("module verification failed:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// FindMain returns the module's main function definition, or nil.
func FindMain(m *ir.Module) *ir.Func {
	for _, fn := range m.Funcs {
		if fn.Name() == "main" && len(fn.Blocks) > 0 {
			return fn
		}
	}
	return nil
}
