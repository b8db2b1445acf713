package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyfishxu/aurora/internal/frontend/ast"
)

// Parsing then printing to canonical source and re-parsing reaches a
// fixed point: the canonical form of the reparse equals the first
// canonical form.
func assertRoundTrip(t *testing.T, src string) {
	t.Helper()

	first := mustParse(t, src)
	canonical := ast.Print(first)

	second := mustParse(t, canonical)
	assert.Equal(t, canonical, ast.Print(second), "canonical form is not a fixed point:\n%s", canonical)
}

func TestRoundTripArithmetic(t *testing.T) {
	assertRoundTrip(t, "fn main() -> int { var x: int = 2 + 3 * 4; return x; }")
}

func TestRoundTripControlFlow(t *testing.T) {
	assertRoundTrip(t, `fn main() -> int {
		var s: int = 0;
		for i in 0..3 { s = s + i; }
		while s > 0 { s = s - 1; if s == 2 { break; } else { continue; } }
		loop { break; }
		return s;
	}`)
}

func TestRoundTripClasses(t *testing.T) {
	assertRoundTrip(t, `class P(let x: int, let y: int)
object Config { var debug: bool = false }
fn main() -> int { let p = P(3, 4); return p.x + p.y; }`)
}

func TestRoundTripOptionals(t *testing.T) {
	assertRoundTrip(t, `fn main() -> int {
		let a: int? = null;
		if a == null { return 42; }
		let b = a ?? 1;
		return b > 0 ? b : 0;
	}`)
}

func TestRoundTripStringsAndArrays(t *testing.T) {
	assertRoundTrip(t, `fn main() -> int {
		let s: string = "a\nb\t\"c\"";
		let xs = [1, 2, 3];
		return xs[0];
	}`)
}

func TestRoundTripImports(t *testing.T) {
	module := mustParse(t, `package com.example.app
import "lib/util"
fn main() -> int { return 0; }`)

	canonical := ast.Print(module)
	second := mustParse(t, canonical)
	require.NotNil(t, second.Package)
	assert.Equal(t, "com.example.app", second.Package.Name)
	require.Len(t, second.Imports, 1)
	assert.Equal(t, "lib/util", second.Imports[0].Path)
}
