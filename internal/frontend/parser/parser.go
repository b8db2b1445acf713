package parser

import (
	"fmt"

	"github.com/flyfishxu/aurora/internal/diagnostics"
	"github.com/flyfishxu/aurora/internal/frontend/ast"
	"github.com/flyfishxu/aurora/internal/source"
	"github.com/flyfishxu/aurora/internal/tokens"
	"github.com/flyfishxu/aurora/internal/types"
)

// Parser builds an AST from a token stream. It is created per file
// and thrown away; shared state (the class registry) is passed in.
//
// Parsing is single-pass with partial type inference: localTypes maps
// parameter and let/var names to their types so variable references
// can be typed as they are built. A first parse error reports E2001
// and aborts the file (no recovery), mirroring the pipeline's
// non-resumable error model.
type Parser struct {
	tokens      []tokens.Token
	current     int
	diagnostics *diagnostics.Bag
	filepath    string
	registry    *types.Registry

	// local name -> type map for the function or method being parsed
	localTypes map[string]types.Type

	// class whose body is being parsed; types 'this'
	currentClass *types.Class
}

// bailout is the sentinel used to unwind the parser on a fatal parse
// error. Parse recovers it; anything else propagates.
type bailout struct{}

// Parse consumes the token stream and returns the module, or nil when
// a parse error was reported.
func Parse(toks []tokens.Token, filepath string, diag *diagnostics.Bag, registry *types.Registry) *ast.Module {
	p := &Parser{
		tokens:      toks,
		diagnostics: diag,
		filepath:    filepath,
		registry:    registry,
		localTypes:  make(map[string]types.Type),
	}

	module := &ast.Module{FilePath: filepath}

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			// diagnostics already recorded; drop the partial AST
		}
	}()

	p.parseProgram(module)
	return module
}

func (p *Parser) parseProgram(module *ast.Module) {
	for !p.isAtEnd() {
		switch p.peek().Kind {
		case tokens.PACKAGE_TOKEN:
			module.Package = p.parsePackage()
		case tokens.IMPORT_TOKEN:
			module.Imports = append(module.Imports, p.parseImport())
		case tokens.EXTERN_TOKEN:
			p.parseExtern()
		case tokens.FN_TOKEN:
			module.Functions = append(module.Functions, p.parseFunction())
		case tokens.CLASS_TOKEN:
			module.Classes = append(module.Classes, p.parseClassOrObject(false))
		case tokens.OBJECT_TOKEN:
			module.Classes = append(module.Classes, p.parseClassOrObject(true))
		default:
			p.errorf("expected 'import', 'fn', 'class', 'object', or 'extern'")
		}
	}
}

// parsePackage: package com.example.app
func (p *Parser) parsePackage() *ast.PackageDecl {
	start := p.expect(tokens.PACKAGE_TOKEN).Start

	name := p.expect(tokens.IDENTIFIER_TOKEN).Value
	for p.match(tokens.DOT_TOKEN) {
		name += "." + p.expect(tokens.IDENTIFIER_TOKEN).Value
	}

	p.match(tokens.SEMICOLON_TOKEN)

	return &ast.PackageDecl{
		Name:     name,
		Location: p.spanFrom(start),
	}
}

// parseImport: import "path"; or import com.example.module;
func (p *Parser) parseImport() *ast.ImportDecl {
	start := p.expect(tokens.IMPORT_TOKEN).Start

	var path string
	switch p.peek().Kind {
	case tokens.STRING_TOKEN:
		path = p.advance().Value
	case tokens.IDENTIFIER_TOKEN:
		path = p.advance().Value
		for p.match(tokens.DOT_TOKEN) {
			path += "." + p.expect(tokens.IDENTIFIER_TOKEN).Value
		}
	default:
		p.errorf("expected module path after 'import' (string or identifier)")
	}

	p.match(tokens.SEMICOLON_TOKEN)

	return &ast.ImportDecl{
		Path:     path,
		Location: p.spanFrom(start),
	}
}

// parseExtern accepts the deprecated extern declaration and discards
// it: built-in functions are registered by the compiler.
func (p *Parser) parseExtern() {
	start := p.expect(tokens.EXTERN_TOKEN).Start

	p.expect(tokens.IDENTIFIER_TOKEN)
	p.expect(tokens.OPEN_PAREN)
	if !p.check(tokens.CLOSE_PAREN) {
		for {
			p.expect(tokens.IDENTIFIER_TOKEN)
			if !p.match(tokens.COMMA_TOKEN) {
				break
			}
		}
	}
	p.expect(tokens.CLOSE_PAREN)
	p.match(tokens.SEMICOLON_TOKEN)

	loc := p.spanFrom(start)
	p.diagnostics.Add(
		diagnostics.NewWarning("'extern' declarations are deprecated and ignored").
			WithCode(diagnostics.WarnExternDecl).
			WithPrimaryLabel(p.filepath, &loc, "remove this declaration").
			WithNote("Built-in functions are registered automatically"),
	)
}

func (p *Parser) parseFunction() *ast.Function {
	p.expect(tokens.FN_TOKEN)

	proto := p.parsePrototype()

	// New function scope: parameters seed the local type map
	p.localTypes = make(map[string]types.Type)
	for _, param := range proto.Params {
		p.localTypes[param.Name] = param.Type
	}

	body := p.parseBlock()

	return &ast.Function{Proto: proto, Body: body}
}

func (p *Parser) parsePrototype() *ast.Prototype {
	nameTok := p.expect(tokens.IDENTIFIER_TOKEN)

	p.expect(tokens.OPEN_PAREN)
	params := p.parseParameterList()
	p.expect(tokens.CLOSE_PAREN)

	// Return type annotation is optional and defaults to void
	var returnType types.Type = types.Void
	if p.match(tokens.ARROW_TOKEN) {
		returnType = p.parseType()
	}

	return &ast.Prototype{
		Name:     nameTok.Value,
		Params:   params,
		Return:   returnType,
		Location: *source.NewLocation(&p.filepath, &nameTok.Start, &nameTok.End),
	}
}

// parseParameterList parses name(: Type)? pairs up to the closing
// paren. A missing annotation defaults to double for legacy sources.
func (p *Parser) parseParameterList() []ast.Parameter {
	var params []ast.Parameter
	if p.check(tokens.CLOSE_PAREN) {
		return params
	}

	for {
		name := p.expect(tokens.IDENTIFIER_TOKEN).Value

		var paramType types.Type = types.Double
		if p.match(tokens.COLON_TOKEN) {
			paramType = p.parseType()
		}

		params = append(params, ast.Parameter{Name: name, Type: paramType})

		if !p.match(tokens.COMMA_TOKEN) {
			break
		}
	}
	return params
}

func (p *Parser) parseBlock() []ast.Statement {
	p.expect(tokens.OPEN_CURLY)

	var statements []ast.Statement
	for !p.check(tokens.CLOSE_CURLY) && !p.isAtEnd() {
		statements = append(statements, p.parseStatement())
	}

	p.expect(tokens.CLOSE_CURLY)
	return statements
}

// Helper methods

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == tokens.EOF_TOKEN
}

func (p *Parser) peek() tokens.Token {
	if p.current >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current]
}

func (p *Parser) peekNext() tokens.Token {
	if p.current+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+1]
}

func (p *Parser) previous() tokens.Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}

func (p *Parser) advance() tokens.Token {
	tok := p.peek()
	if p.current < len(p.tokens) {
		p.current++
	}
	return tok
}

func (p *Parser) check(kind tokens.TOKEN) bool {
	return p.peek().Kind == kind
}

// match consumes the next token if it has the given kind.
func (p *Parser) match(kind tokens.TOKEN) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(kind tokens.TOKEN) tokens.Token {
	if p.check(kind) {
		return p.advance()
	}
	p.errorf("expected '%s'", kind)
	return p.peek()
}

// errorf reports an E2001 parse error at the current token and aborts
// the current compilation.
func (p *Parser) errorf(format string, args ...any) {
	tok := p.peek()
	msg := fmt.Sprintf(format, args...)
	if tok.Value != "" {
		msg += fmt.Sprintf(" (got '%s')", tok.Value)
	}

	loc := source.NewLocation(&p.filepath, &tok.Start, &tok.End)
	p.diagnostics.Add(
		diagnostics.NewError(msg).
			WithCode(diagnostics.ErrParse).
			WithPrimaryLabel(p.filepath, loc, ""),
	)

	panic(bailout{})
}

// spanFrom builds a location from a start position to the end of the
// previously consumed token.
func (p *Parser) spanFrom(start source.Position) source.Location {
	end := p.previous().End
	return *source.NewLocation(&p.filepath, &start, &end)
}
