package builtins

import (
	"strings"

	"github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"

	"github.com/flyfishxu/aurora/internal/codegen"
)

// The standard library surface. Every function resolves under both
// the aurora_ snake_case name and the auroraStd camel-case alias;
// the engine links the single C definition to both.

type signature struct {
	name   string
	ret    lltypes.Type
	params []lltypes.Type
}

var (
	i8p = lltypes.I8Ptr
	i32 = lltypes.I32
	i64 = lltypes.I64
	f64 = lltypes.Double
	nul = lltypes.Void
)

var stdlib = []signature{
	// I/O
	{"print_int", i64, []lltypes.Type{i64}},
	{"print_double", f64, []lltypes.Type{f64}},
	{"print_bool", i32, []lltypes.Type{i32}},
	{"print_string", nul, []lltypes.Type{i8p}},
	{"println_int", i64, []lltypes.Type{i64}},
	{"println_double", f64, []lltypes.Type{f64}},
	{"println_bool", i32, []lltypes.Type{i32}},
	{"println_string", nul, []lltypes.Type{i8p}},

	// Strings
	{"string_length", i64, []lltypes.Type{i8p}},
	{"string_concat", i8p, []lltypes.Type{i8p, i8p}},
	{"string_compare", i32, []lltypes.Type{i8p, i8p}},
	{"string_equals", i32, []lltypes.Type{i8p, i8p}},
	{"string_substring", i8p, []lltypes.Type{i8p, i64, i64}},
	{"string_contains", i32, []lltypes.Type{i8p, i8p}},
	{"string_index_of", i64, []lltypes.Type{i8p, i8p}},
	{"string_upper", i8p, []lltypes.Type{i8p}},
	{"string_lower", i8p, []lltypes.Type{i8p}},
	{"string_trim", i8p, []lltypes.Type{i8p}},
	{"string_replace", i8p, []lltypes.Type{i8p, i8p, i8p}},
	{"string_to_int", i64, []lltypes.Type{i8p}},
	{"string_to_double", f64, []lltypes.Type{i8p}},
	{"int_to_string", i8p, []lltypes.Type{i64}},
	{"double_to_string", i8p, []lltypes.Type{f64}},

	// Math
	{"sin", f64, []lltypes.Type{f64}},
	{"cos", f64, []lltypes.Type{f64}},
	{"tan", f64, []lltypes.Type{f64}},
	{"asin", f64, []lltypes.Type{f64}},
	{"acos", f64, []lltypes.Type{f64}},
	{"atan", f64, []lltypes.Type{f64}},
	{"atan2", f64, []lltypes.Type{f64, f64}},
	{"exp", f64, []lltypes.Type{f64}},
	{"log", f64, []lltypes.Type{f64}},
	{"log10", f64, []lltypes.Type{f64}},
	{"pow", f64, []lltypes.Type{f64, f64}},
	{"sqrt", f64, []lltypes.Type{f64}},
	{"floor", f64, []lltypes.Type{f64}},
	{"ceil", f64, []lltypes.Type{f64}},
	{"round", f64, []lltypes.Type{f64}},
	{"random_int", i64, []lltypes.Type{i64, i64}},
	{"random_double", f64, nil},
	{"random_seed", nul, []lltypes.Type{i64}},

	// Time
	{"time_now", i64, nil},
	{"time_now_millis", i64, nil},
	{"sleep_millis", nul, []lltypes.Type{i64}},

	// Files
	{"file_read", i8p, []lltypes.Type{i8p}},
	{"file_write", i32, []lltypes.Type{i8p, i8p}},
	{"file_append", i32, []lltypes.Type{i8p, i8p}},
	{"file_exists", i32, []lltypes.Type{i8p}},
	{"file_delete", i32, []lltypes.Type{i8p}},

	// System
	{"exit", nul, []lltypes.Type{i32}},
	{"get_env", i8p, []lltypes.Type{i8p}},
	{"arg_count", i64, nil},
	{"arg_get", i8p, []lltypes.Type{i64}},
}

// Register declares every standard-library prototype in the module,
// under both prefixes, before user code is generated.
func Register(g *codegen.Generator) {
	for _, sig := range stdlib {
		params := make([]*ir.Param, len(sig.params))
		for i, p := range sig.params {
			params[i] = ir.NewParam("", p)
		}
		g.DeclareExternal("aurora_"+sig.name, sig.ret, params...)

		alias := make([]*ir.Param, len(sig.params))
		for i, p := range sig.params {
			alias[i] = ir.NewParam("", p)
		}
		g.DeclareExternal("auroraStd"+camelCase(sig.name), sig.ret, alias...)
	}

	// printd is the legacy debug-print hook kept for old sources
	g.DeclareExternal("printd", f64, ir.NewParam("x", f64))
}

// camelCase converts print_int to PrintInt.
func camelCase(snake string) string {
	parts := strings.Split(snake, "_")
	var sb strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(part[:1]))
		sb.WriteString(part[1:])
	}
	return sb.String()
}
