package parser

import (
	"github.com/flyfishxu/aurora/internal/frontend/ast"
	"github.com/flyfishxu/aurora/internal/source"
	"github.com/flyfishxu/aurora/internal/tokens"
	"github.com/flyfishxu/aurora/internal/types"
)

// parseClassOrObject parses a class or object (singleton) declaration.
// The class type is registered before the body so methods and later
// functions can reference it, including recursively.
func (p *Parser) parseClassOrObject(singleton bool) *ast.ClassDecl {
	var start tokens.Token
	if singleton {
		start = p.expect(tokens.OBJECT_TOKEN)
	} else {
		start = p.expect(tokens.CLASS_TOKEN)
	}

	nameTok := p.expect(tokens.IDENTIFIER_TOKEN)
	className := nameTok.Value

	classType := p.registry.Declare(className)

	prevClass := p.currentClass
	p.currentClass = classType
	defer func() { p.currentClass = prevClass }()

	var fields []ast.FieldDecl
	var methods []ast.MethodDecl

	// Primary constructor: class Name(pub let x: T, var y: U)
	if p.match(tokens.OPEN_PAREN) {
		var ctorParams []ast.Parameter

		if !p.check(tokens.CLOSE_PAREN) {
			for {
				isPublic := true
				if p.match(tokens.PUB_TOKEN) {
					isPublic = true
				} else if p.match(tokens.PRIV_TOKEN) {
					isPublic = false
				}

				if !p.match(tokens.VAR_TOKEN) && !p.match(tokens.LET_TOKEN) {
					p.errorf("expected 'let' or 'var' in primary constructor parameter")
				}

				fieldName := p.expect(tokens.IDENTIFIER_TOKEN).Value
				p.expect(tokens.COLON_TOKEN)
				fieldType := p.parseType()

				fields = append(fields, ast.FieldDecl{
					Name:      fieldName,
					FieldType: fieldType,
					Public:    isPublic,
				})
				ctorParams = append(ctorParams, ast.Parameter{Name: fieldName, Type: fieldType})

				if !p.match(tokens.COMMA_TOKEN) {
					break
				}
			}
		}
		p.expect(tokens.CLOSE_PAREN)

		// Desugar: a constructor assigning each parameter to the
		// matching field
		if len(ctorParams) > 0 {
			body := make([]ast.Statement, 0, len(ctorParams))
			for _, param := range ctorParams {
				target := &ast.MemberAccessExpr{
					Object:     &ast.ThisExpr{ThisType: classType},
					Member:     param.Name,
					MemberType: param.Type,
				}
				value := &ast.VarExpr{Name: param.Name, VarType: param.Type}
				body = append(body, &ast.AssignStmt{Target: target, Value: value})
			}

			methods = append(methods, ast.MethodDecl{
				Name:        "constructor",
				Params:      ctorParams,
				Return:      types.Void,
				Body:        body,
				Public:      true,
				Constructor: true,
			})
		}
	}

	// The body is optional: a primary constructor alone is a
	// complete declaration
	if p.match(tokens.OPEN_CURLY) {
		for !p.check(tokens.CLOSE_CURLY) && !p.isAtEnd() {
			isPublic := true
			if p.match(tokens.PUB_TOKEN) {
				isPublic = true
			} else if p.match(tokens.PRIV_TOKEN) {
				isPublic = false
			}

			switch p.peek().Kind {
			case tokens.CONSTRUCTOR_TOKEN, tokens.FN_TOKEN, tokens.STATIC_TOKEN:
				methods = append(methods, p.parseMethod(isPublic))
			case tokens.LET_TOKEN, tokens.VAR_TOKEN:
				fields = append(fields, p.parseField(isPublic))
			default:
				p.errorf("expected field or method declaration in class/object body")
			}
		}
		p.expect(tokens.CLOSE_CURLY)
	}

	decl := &ast.ClassDecl{
		Name:      className,
		Fields:    fields,
		Methods:   methods,
		Singleton: singleton,
		Location:  *newSpan(&p.filepath, start, p.previous()),
	}

	decl.GenerateImplicitConstructor(classType)

	// Link type -> declaration; member access and construction
	// resolve through this back-pointer from here on
	classType.SetDecl(decl)

	return decl
}

func (p *Parser) parseField(isPublic bool) ast.FieldDecl {
	if !p.match(tokens.VAR_TOKEN) {
		p.expect(tokens.LET_TOKEN)
	}

	name := p.expect(tokens.IDENTIFIER_TOKEN).Value
	p.expect(tokens.COLON_TOKEN)
	fieldType := p.parseType()

	var init ast.Expression
	if p.match(tokens.EQUALS_TOKEN) {
		init = p.parseExpression()
	}

	p.match(tokens.SEMICOLON_TOKEN)

	return ast.FieldDecl{
		Name:      name,
		FieldType: fieldType,
		Public:    isPublic,
		Init:      init,
	}
}

func (p *Parser) parseMethod(isPublic bool) ast.MethodDecl {
	isStatic := p.match(tokens.STATIC_TOKEN)

	isConstructor := false
	var name string
	if p.match(tokens.CONSTRUCTOR_TOKEN) {
		isConstructor = true
		name = "constructor"
	} else {
		p.expect(tokens.FN_TOKEN)
		name = p.expect(tokens.IDENTIFIER_TOKEN).Value
	}

	p.expect(tokens.OPEN_PAREN)
	params := p.parseParameterList()
	p.expect(tokens.CLOSE_PAREN)

	var returnType types.Type = types.Void
	if p.match(tokens.ARROW_TOKEN) {
		returnType = p.parseType()
	}

	// New method scope
	p.localTypes = make(map[string]types.Type)
	for _, param := range params {
		p.localTypes[param.Name] = param.Type
	}

	body := p.parseBlock()

	return ast.MethodDecl{
		Name:        name,
		Params:      params,
		Return:      returnType,
		Body:        body,
		Public:      isPublic,
		Static:      isStatic,
		Constructor: isConstructor,
	}
}

func newSpan(filepath *string, start, end tokens.Token) *source.Location {
	return source.NewLocation(filepath, &start.Start, &end.End)
}
