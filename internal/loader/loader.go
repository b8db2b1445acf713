package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flyfishxu/aurora/colors"
	"github.com/flyfishxu/aurora/internal/codegen"
	"github.com/flyfishxu/aurora/internal/diagnostics"
	"github.com/flyfishxu/aurora/internal/frontend/lexer"
	"github.com/flyfishxu/aurora/internal/frontend/parser"
	"github.com/flyfishxu/aurora/internal/types"
	utilsfs "github.com/flyfishxu/aurora/internal/utils/fs"
)

const sourceExtension = ".aur"

// Loader resolves import declarations to files and recursively
// parses and code-generates them before the importing module.
// Loading is idempotent: each resolved absolute path is recorded and
// skipped on subsequent requests, which keeps import cycles from
// looping.
type Loader struct {
	registry    *types.Registry
	diagnostics *diagnostics.Bag
	generator   *codegen.Generator

	// SearchPaths are tried in order for package-style imports.
	SearchPaths []string

	loaded map[string]bool
	debug  bool
}

func New(registry *types.Registry, diag *diagnostics.Bag, gen *codegen.Generator, searchPaths []string, debug bool) *Loader {
	return &Loader{
		registry:    registry,
		diagnostics: diag,
		generator:   gen,
		SearchPaths: searchPaths,
		loaded:      make(map[string]bool),
		debug:       debug,
	}
}

// Load resolves and compiles one imported module, including its own
// imports, depth first.
func (l *Loader) Load(modulePath, currentFile string) error {
	resolved, err := l.resolve(modulePath, currentFile)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(resolved)
	if err != nil {
		abs = resolved
	}

	if l.loaded[abs] {
		if l.debug {
			colors.GREY.Printf("  module already loaded: %s\n", modulePath)
		}
		return nil
	}
	// Mark before parsing so a cyclic import terminates
	l.loaded[abs] = true

	content, err := os.ReadFile(resolved)
	if err != nil {
		return fmt.Errorf("cannot open module file %s: %w", resolved, err)
	}

	l.diagnostics.AddSourceContent(resolved, string(content))

	lex := lexer.New(resolved, string(content), l.diagnostics)
	toks := lex.Tokenize(false)

	module := parser.Parse(toks, resolved, l.diagnostics, l.registry)
	if module == nil || l.diagnostics.HasErrors() {
		return fmt.Errorf("failed to parse module: %s", modulePath)
	}

	// Sub-imports compile before this module's own definitions
	for _, imp := range module.Imports {
		if err := l.Load(imp.Path, resolved); err != nil {
			return err
		}
	}

	l.generator.EmitModule(module)
	if l.diagnostics.HasErrors() {
		return fmt.Errorf("failed to generate code for module: %s", modulePath)
	}

	if l.debug {
		colors.PURPLE.Printf("  ✓ %s\n", modulePath)
	}
	return nil
}

// resolve maps an import path to a source file. Dotted package paths
// become directory paths; slash paths are taken relative to the
// importing file; bare names look in the importing file's directory
// and the search paths.
func (l *Loader) resolve(modulePath, currentFile string) (string, error) {
	var relPath string
	packageStyle := false

	switch {
	case strings.Contains(modulePath, "/") || strings.Contains(modulePath, "\\"):
		relPath = modulePath
		if !strings.HasSuffix(relPath, sourceExtension) {
			relPath += sourceExtension
		}
	case strings.Contains(modulePath, "."):
		packageStyle = true
		relPath = strings.ReplaceAll(modulePath, ".", string(filepath.Separator)) + sourceExtension
	default:
		relPath = modulePath + sourceExtension
	}

	var candidates []string
	if currentFile != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(currentFile), relPath))
	}
	if packageStyle || !filepath.IsAbs(relPath) {
		for _, searchPath := range l.SearchPaths {
			candidates = append(candidates, filepath.Join(searchPath, relPath))
		}
	}
	candidates = append(candidates, relPath)

	for _, candidate := range candidates {
		if utilsfs.IsValidFile(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("module not found: %s (searched relative to %s and %d search path(s))",
		modulePath, currentFile, len(l.SearchPaths))
}
