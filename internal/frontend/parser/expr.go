package parser

import (
	"strconv"

	"github.com/flyfishxu/aurora/internal/frontend/ast"
	"github.com/flyfishxu/aurora/internal/source"
	"github.com/flyfishxu/aurora/internal/tokens"
	"github.com/flyfishxu/aurora/internal/types"
)

// Precedence ladder, loosest first:
// ?: (right) -> ?? (right) -> || -> && -> comparisons -> bitwise ->
// additive -> multiplicative -> unary -> postfix -> primary

func (p *Parser) parseExpression() ast.Expression {
	start := p.peek().Start
	expr := p.parseCoalescing()

	if p.match(tokens.QUESTION_TOKEN) {
		trueExpr := p.parseExpression()
		p.expect(tokens.COLON_TOKEN)
		falseExpr := p.parseExpression()
		return &ast.TernaryExpr{
			Cond:     expr,
			True:     trueExpr,
			False:    falseExpr,
			Location: p.spanFrom(start),
		}
	}

	return expr
}

// parseCoalescing parses the right-associative ?? operator.
func (p *Parser) parseCoalescing() ast.Expression {
	start := p.peek().Start
	left := p.parseLogicalOr()

	if p.match(tokens.COALESCE_TOKEN) {
		right := p.parseCoalescing()
		return &ast.BinaryExpr{
			Op:       ast.OpNullCoalesce,
			Left:     left,
			Right:    right,
			Location: p.spanFrom(start),
		}
	}

	return left
}

func (p *Parser) parseLogicalOr() ast.Expression {
	start := p.peek().Start
	left := p.parseLogicalAnd()

	for p.match(tokens.OR_TOKEN) {
		right := p.parseLogicalAnd()
		left = &ast.BinaryExpr{
			Op:       ast.OpOr,
			Left:     left,
			Right:    right,
			Location: p.spanFrom(start),
		}
	}

	return left
}

func (p *Parser) parseLogicalAnd() ast.Expression {
	start := p.peek().Start
	left := p.parseComparison()

	for p.match(tokens.AND_TOKEN) {
		right := p.parseComparison()
		left = &ast.BinaryExpr{
			Op:       ast.OpAnd,
			Left:     left,
			Right:    right,
			Location: p.spanFrom(start),
		}
	}

	return left
}

var comparisonOps = map[tokens.TOKEN]ast.BinaryOp{
	tokens.LESS_TOKEN:          ast.OpLess,
	tokens.GREATER_TOKEN:       ast.OpGreater,
	tokens.LESS_EQUAL_TOKEN:    ast.OpLessEq,
	tokens.GREATER_EQUAL_TOKEN: ast.OpGreaterEq,
	tokens.DOUBLE_EQUAL_TOKEN:  ast.OpEqual,
	tokens.NOT_EQUAL_TOKEN:     ast.OpNotEqual,
}

func (p *Parser) parseComparison() ast.Expression {
	start := p.peek().Start
	left := p.parseBitwise()

	for {
		op, ok := comparisonOps[p.peek().Kind]
		if !ok {
			break
		}
		p.advance()
		right := p.parseBitwise()
		left = &ast.BinaryExpr{
			Op:       op,
			Left:     left,
			Right:    right,
			Location: p.spanFrom(start),
		}
	}

	return left
}

var bitwiseOps = map[tokens.TOKEN]ast.BinaryOp{
	tokens.BIT_AND_TOKEN:     ast.OpBitAnd,
	tokens.BIT_OR_TOKEN:      ast.OpBitOr,
	tokens.BIT_XOR_TOKEN:     ast.OpBitXor,
	tokens.SHIFT_LEFT_TOKEN:  ast.OpShiftLeft,
	tokens.SHIFT_RIGHT_TOKEN: ast.OpShiftRight,
}

func (p *Parser) parseBitwise() ast.Expression {
	start := p.peek().Start
	left := p.parseAdditive()

	for {
		op, ok := bitwiseOps[p.peek().Kind]
		if !ok {
			break
		}
		p.advance()
		right := p.parseAdditive()
		left = &ast.BinaryExpr{
			Op:       op,
			Left:     left,
			Right:    right,
			Location: p.spanFrom(start),
		}
	}

	return left
}

func (p *Parser) parseAdditive() ast.Expression {
	start := p.peek().Start
	left := p.parseMultiplicative()

	for p.check(tokens.PLUS_TOKEN) || p.check(tokens.MINUS_TOKEN) {
		op := ast.OpAdd
		if p.advance().Kind == tokens.MINUS_TOKEN {
			op = ast.OpSub
		}
		right := p.parseMultiplicative()
		left = &ast.BinaryExpr{
			Op:       op,
			Left:     left,
			Right:    right,
			Location: p.spanFrom(start),
		}
	}

	return left
}

func (p *Parser) parseMultiplicative() ast.Expression {
	start := p.peek().Start
	left := p.parseUnary()

	for {
		var op ast.BinaryOp
		switch p.peek().Kind {
		case tokens.MUL_TOKEN:
			op = ast.OpMul
		case tokens.DIV_TOKEN:
			op = ast.OpDiv
		case tokens.MOD_TOKEN:
			op = ast.OpMod
		default:
			return left
		}
		p.advance()
		right := p.parseUnary()
		left = &ast.BinaryExpr{
			Op:       op,
			Left:     left,
			Right:    right,
			Location: p.spanFrom(start),
		}
	}
}

func (p *Parser) parseUnary() ast.Expression {
	start := p.peek().Start

	var op ast.UnaryOp
	switch p.peek().Kind {
	case tokens.NOT_TOKEN:
		op = ast.OpNot
	case tokens.MINUS_TOKEN:
		op = ast.OpNeg
	case tokens.TILDE_TOKEN:
		op = ast.OpBitNot
	default:
		return p.parsePostfix()
	}

	p.advance()
	operand := p.parseUnary()
	return &ast.UnaryExpr{
		Op:       op,
		Operand:  operand,
		Location: p.spanFrom(start),
	}
}

// parsePostfix handles array indexing, member access and calls, safe
// navigation, the x? null check and the x! force unwrap.
func (p *Parser) parsePostfix() ast.Expression {
	start := p.peek().Start
	expr := p.parsePrimary()

	for {
		switch {
		case p.check(tokens.OPEN_BRACKET):
			p.advance()
			index := p.parseExpression()
			p.expect(tokens.CLOSE_BRACKET)
			expr = &ast.ArrayIndexExpr{
				Array:    expr,
				Index:    index,
				Location: p.spanFrom(start),
			}

		case p.check(tokens.DOT_TOKEN):
			p.advance()
			expr = p.parseMemberSuffix(expr, start)

		case p.check(tokens.SAFE_NAV_TOKEN):
			p.advance()
			member := p.expect(tokens.IDENTIFIER_TOKEN).Value
			expr = &ast.SafeNavExpr{
				Object:   expr,
				Member:   member,
				Location: p.spanFrom(start),
			}

		case p.check(tokens.QUESTION_TOKEN) && !p.startsExpression(p.peekNext()):
			p.advance()
			expr = &ast.NullCheckExpr{
				Operand:  expr,
				Location: p.spanFrom(start),
			}

		case p.check(tokens.NOT_TOKEN) && !p.startsExpression(p.peekNext()):
			p.advance()
			expr = &ast.ForceUnwrapExpr{
				Operand:  expr,
				Location: p.spanFrom(start),
			}

		default:
			return expr
		}
	}
}

// parseMemberSuffix parses the member name after '.', producing a
// field access or a method call.
func (p *Parser) parseMemberSuffix(object ast.Expression, start source.Position) ast.Expression {
	member := p.expect(tokens.IDENTIFIER_TOKEN).Value

	if p.match(tokens.OPEN_PAREN) {
		args := p.parseArguments()
		return &ast.MemberCallExpr{
			Object:   object,
			Method:   member,
			Args:     args,
			RetType:  p.inferMethodReturnType(object.Type(), member),
			Location: p.spanFrom(start),
		}
	}

	return &ast.MemberAccessExpr{
		Object:     object,
		Member:     member,
		MemberType: p.inferFieldType(object.Type(), member),
		Location:   p.spanFrom(start),
	}
}

// parseArguments parses a comma-separated argument list; the opening
// paren has already been consumed.
func (p *Parser) parseArguments() []ast.Expression {
	var args []ast.Expression
	if !p.check(tokens.CLOSE_PAREN) {
		for {
			args = append(args, p.parseExpression())
			if !p.match(tokens.COMMA_TOKEN) {
				break
			}
		}
	}
	p.expect(tokens.CLOSE_PAREN)
	return args
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.peek()
	start := tok.Start

	switch tok.Kind {
	case tokens.INT_TOKEN:
		p.advance()
		value, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			p.errorf("invalid integer literal '%s'", tok.Value)
		}
		return &ast.IntLit{Value: value, Location: p.spanFrom(start)}

	case tokens.DOUBLE_TOKEN:
		p.advance()
		value, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			p.errorf("invalid double literal '%s'", tok.Value)
		}
		return &ast.DoubleLit{Value: value, Location: p.spanFrom(start)}

	case tokens.STRING_TOKEN:
		p.advance()
		return &ast.StringLit{Value: tok.Value, Location: p.spanFrom(start)}

	case tokens.TRUE_TOKEN, tokens.FALSE_TOKEN:
		p.advance()
		return &ast.BoolLit{Value: tok.Kind == tokens.TRUE_TOKEN, Location: p.spanFrom(start)}

	case tokens.NULL_TOKEN:
		p.advance()
		return ast.NewNullLit(p.spanFrom(start))

	case tokens.THIS_TOKEN:
		p.advance()
		var thisType types.Type = p.currentClass
		if p.currentClass == nil {
			p.errorf("'this' used outside of a class body")
		}
		return &ast.ThisExpr{ThisType: thisType, Location: p.spanFrom(start)}

	case tokens.IDENTIFIER_TOKEN:
		p.advance()
		if p.check(tokens.OPEN_PAREN) {
			return p.parseCall(tok.Value, start)
		}

		// Variable reference; the local map supplies the type when
		// the name is a parameter or declared local.
		var varType types.Type = types.Int
		if t, ok := p.localTypes[tok.Value]; ok {
			varType = t
		}
		return &ast.VarExpr{
			Name:     tok.Value,
			VarType:  varType,
			Location: p.spanFrom(start),
		}

	case tokens.OPEN_BRACKET:
		return p.parseArrayLiteral()

	case tokens.OPEN_PAREN:
		p.advance()
		expr := p.parseExpression()
		p.expect(tokens.CLOSE_PAREN)
		return expr

	default:
		p.errorf("expected expression")
		return nil
	}
}

// parseCall parses the argument list of name(...). A call whose name
// is a declared class is construction, not a function call.
func (p *Parser) parseCall(callee string, start source.Position) ast.Expression {
	p.expect(tokens.OPEN_PAREN)
	args := p.parseArguments()

	if p.registry.IsDeclared(callee) {
		return &ast.NewExpr{
			ClassName: callee,
			Args:      args,
			ClassType: p.registry.Class(callee),
			Location:  p.spanFrom(start),
		}
	}

	// Free function; the signature is resolved in the module at
	// code generation, double is the legacy placeholder.
	return &ast.CallExpr{
		Callee:   callee,
		Args:     args,
		RetType:  types.Double,
		Location: p.spanFrom(start),
	}
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	start := p.expect(tokens.OPEN_BRACKET).Start

	var elements []ast.Expression
	if !p.check(tokens.CLOSE_BRACKET) {
		for {
			elements = append(elements, p.parseExpression())
			if !p.match(tokens.COMMA_TOKEN) {
				break
			}
		}
	}
	p.expect(tokens.CLOSE_BRACKET)

	// Element type is inferred from the first element; empty array
	// literals default to int elements.
	var elemType types.Type = types.Int
	if len(elements) > 0 {
		elemType = elements[0].Type()
	}

	return &ast.ArrayLitExpr{
		Elements:  elements,
		ArrayType: types.NewArray(elemType),
		Location:  p.spanFrom(start),
	}
}

// inferMethodReturnType resolves a method's declared return type when
// the receiver's class declaration is already registered; otherwise
// double stands in until code generation refines it.
func (p *Parser) inferMethodReturnType(objType types.Type, method string) types.Type {
	classType, ok := objType.(*types.Class)
	if !ok {
		return types.Double
	}

	decl, ok := classType.Decl.(*ast.ClassDecl)
	if !ok || decl == nil {
		return types.Double
	}

	if m := decl.FindMethod(method); m != nil && m.Return != nil {
		return m.Return
	}
	return types.Double
}

// inferFieldType resolves a field's declared type when the receiver's
// class declaration is registered.
func (p *Parser) inferFieldType(objType types.Type, field string) types.Type {
	classType, ok := objType.(*types.Class)
	if !ok {
		return types.Double
	}

	decl, ok := classType.Decl.(*ast.ClassDecl)
	if !ok || decl == nil {
		return types.Double
	}

	if f := decl.FindField(field); f != nil {
		return f.FieldType
	}
	return types.Double
}

// startsExpression reports whether a token can begin an expression.
// Used to distinguish the postfix x? null check and x! unwrap from a
// ternary condition or a binary context.
func (p *Parser) startsExpression(tok tokens.Token) bool {
	switch tok.Kind {
	case tokens.INT_TOKEN, tokens.DOUBLE_TOKEN, tokens.STRING_TOKEN,
		tokens.TRUE_TOKEN, tokens.FALSE_TOKEN, tokens.NULL_TOKEN,
		tokens.IDENTIFIER_TOKEN, tokens.THIS_TOKEN,
		tokens.OPEN_PAREN, tokens.OPEN_BRACKET,
		tokens.NOT_TOKEN, tokens.MINUS_TOKEN, tokens.TILDE_TOKEN:
		return true
	default:
		return false
	}
}
