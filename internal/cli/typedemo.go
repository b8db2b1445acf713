package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flyfishxu/aurora/internal/types"
)

// demonstrateTypeSystem prints the type system demo for --type-demo.
func demonstrateTypeSystem(cmd *cobra.Command) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "=== Aurora Type System Demo ===")

	fmt.Fprintln(out, "\nBasic Types:")
	for _, t := range []types.Type{types.Int, types.Double, types.Bool, types.String} {
		fmt.Fprintf(out, "  - %s (mangled %q)\n", t, t.Mangled())
	}

	optionalInt := types.NewOptional(types.Int)
	optionalString := types.NewOptional(types.String)

	fmt.Fprintln(out, "\nOptional Types (Null-Safe):")
	fmt.Fprintf(out, "  - %s (mangled %q)\n", optionalInt, optionalInt.Mangled())
	fmt.Fprintf(out, "  - %s (mangled %q)\n", optionalString, optionalString.Mangled())

	funcType := types.NewFunction(types.Int, []types.Type{types.Int, types.Int})

	fmt.Fprintln(out, "\nFunction Type:")
	fmt.Fprintf(out, "  - %s (mangled %q)\n", funcType, funcType.Mangled())

	arrayType := types.NewArray(types.Double)

	fmt.Fprintln(out, "\nArray Type:")
	fmt.Fprintf(out, "  - %s (mangled %q)\n", arrayType, arrayType.Mangled())

	fmt.Fprintln(out, "\nType Properties:")
	fmt.Fprintf(out, "  - int is optional: %v\n", types.IsOptional(types.Int))
	fmt.Fprintf(out, "  - int? is optional: %v\n", types.IsOptional(optionalInt))
}
