package parser

import (
	"github.com/flyfishxu/aurora/internal/frontend/ast"
	"github.com/flyfishxu/aurora/internal/tokens"
	"github.com/flyfishxu/aurora/internal/types"
)

func (p *Parser) parseStatement() ast.Statement {
	switch p.peek().Kind {
	case tokens.RETURN_TOKEN:
		return p.parseReturnStatement()
	case tokens.LET_TOKEN, tokens.VAR_TOKEN:
		return p.parseVarDecl()
	case tokens.IF_TOKEN:
		return p.parseIfStatement()
	case tokens.WHILE_TOKEN:
		return p.parseWhileStatement()
	case tokens.FOR_TOKEN:
		return p.parseForStatement()
	case tokens.LOOP_TOKEN:
		return p.parseLoopStatement()
	case tokens.BREAK_TOKEN:
		return p.parseBreakStatement()
	case tokens.CONTINUE_TOKEN:
		return p.parseContinueStatement()
	default:
		return p.parseExprOrAssign()
	}
}

// parseExprOrAssign parses an expression statement or an assignment.
func (p *Parser) parseExprOrAssign() ast.Statement {
	start := p.peek().Start
	expr := p.parseExpression()

	if p.match(tokens.EQUALS_TOKEN) {
		value := p.parseExpression()
		p.match(tokens.SEMICOLON_TOKEN)
		return &ast.AssignStmt{
			Target:   expr,
			Value:    value,
			Location: p.spanFrom(start),
		}
	}

	p.match(tokens.SEMICOLON_TOKEN)
	return &ast.ExprStmt{
		X:        expr,
		Location: p.spanFrom(start),
	}
}

func (p *Parser) parseReturnStatement() ast.Statement {
	start := p.expect(tokens.RETURN_TOKEN).Start

	var value ast.Expression
	if !p.check(tokens.SEMICOLON_TOKEN) && !p.check(tokens.CLOSE_CURLY) && !p.isAtEnd() {
		value = p.parseExpression()
	}

	p.match(tokens.SEMICOLON_TOKEN)
	return &ast.ReturnStmt{
		Value:    value,
		Location: p.spanFrom(start),
	}
}

func (p *Parser) parseVarDecl() ast.Statement {
	start := p.peek().Start
	mutable := p.peek().Kind == tokens.VAR_TOKEN
	p.advance() // let or var

	name := p.expect(tokens.IDENTIFIER_TOKEN).Value

	// Type annotation is optional; inferred from the initializer
	var varType types.Type
	if p.match(tokens.COLON_TOKEN) {
		varType = p.parseType()
	}

	if !p.match(tokens.EQUALS_TOKEN) {
		p.errorf("variable declaration requires initializer")
	}
	init := p.parseExpression()

	if varType == nil {
		varType = init.Type()
	}

	// Narrow a null initializer to the declared optional type
	if nullLit, ok := init.(*ast.NullLit); ok && types.IsOptional(varType) {
		nullLit.SetResolvedType(varType)
	}

	p.localTypes[name] = varType

	p.match(tokens.SEMICOLON_TOKEN)
	return &ast.VarDeclStmt{
		Name:     name,
		VarType:  varType,
		Init:     init,
		Mutable:  mutable,
		Location: p.spanFrom(start),
	}
}

func (p *Parser) parseIfStatement() ast.Statement {
	start := p.expect(tokens.IF_TOKEN).Start

	cond := p.parseExpression()
	then := p.parseBlock()

	var elseBranch []ast.Statement
	if p.match(tokens.ELSE_TOKEN) {
		if p.check(tokens.IF_TOKEN) {
			elseBranch = []ast.Statement{p.parseIfStatement()}
		} else {
			elseBranch = p.parseBlock()
		}
	}

	return &ast.IfStmt{
		Cond:     cond,
		Then:     then,
		Else:     elseBranch,
		Location: p.spanFrom(start),
	}
}

func (p *Parser) parseWhileStatement() ast.Statement {
	start := p.expect(tokens.WHILE_TOKEN).Start

	cond := p.parseExpression()
	body := p.parseBlock()

	return &ast.WhileStmt{
		Cond:     cond,
		Body:     body,
		Location: p.spanFrom(start),
	}
}

// parseForStatement: for i in start..end { }
// The loop variable is bound with the start expression's type in the
// body's scope.
func (p *Parser) parseForStatement() ast.Statement {
	start := p.expect(tokens.FOR_TOKEN).Start

	varName := p.expect(tokens.IDENTIFIER_TOKEN).Value
	p.expect(tokens.IN_TOKEN)

	startExpr := p.parseExpression()
	p.expect(tokens.RANGE_TOKEN)
	endExpr := p.parseExpression()

	// Optional step: for i in 0..10 : 2
	var stepExpr ast.Expression
	if p.match(tokens.COLON_TOKEN) {
		stepExpr = p.parseExpression()
	}

	prev, hadPrev := p.localTypes[varName]
	p.localTypes[varName] = startExpr.Type()

	body := p.parseBlock()

	if hadPrev {
		p.localTypes[varName] = prev
	} else {
		delete(p.localTypes, varName)
	}

	return &ast.ForStmt{
		VarName:  varName,
		Start:    startExpr,
		End:      endExpr,
		Step:     stepExpr,
		Body:     body,
		Location: p.spanFrom(start),
	}
}

func (p *Parser) parseLoopStatement() ast.Statement {
	start := p.expect(tokens.LOOP_TOKEN).Start
	body := p.parseBlock()

	return &ast.LoopStmt{
		Body:     body,
		Location: p.spanFrom(start),
	}
}

func (p *Parser) parseBreakStatement() ast.Statement {
	start := p.expect(tokens.BREAK_TOKEN).Start
	p.match(tokens.SEMICOLON_TOKEN)
	return &ast.BreakStmt{Location: p.spanFrom(start)}
}

func (p *Parser) parseContinueStatement() ast.Statement {
	start := p.expect(tokens.CONTINUE_TOKEN).Start
	p.match(tokens.SEMICOLON_TOKEN)
	return &ast.ContinueStmt{Location: p.spanFrom(start)}
}
