package parser

import (
	"github.com/flyfishxu/aurora/internal/tokens"
	"github.com/flyfishxu/aurora/internal/types"
)

// parseType parses a type annotation. A trailing '?' wraps the type
// in an optional; void cannot be optional.
func (p *Parser) parseType() types.Type {
	switch p.peek().Kind {
	case tokens.OPEN_BRACKET:
		p.advance()
		elem := p.parseType()
		p.expect(tokens.CLOSE_BRACKET)
		return p.maybeOptional(types.NewArray(elem))

	case tokens.TYPE_INT_TOKEN:
		p.advance()
		return p.maybeOptional(types.Int)

	case tokens.TYPE_DOUBLE_TOKEN:
		p.advance()
		return p.maybeOptional(types.Double)

	case tokens.TYPE_BOOL_TOKEN:
		p.advance()
		return p.maybeOptional(types.Bool)

	case tokens.TYPE_STRING_TOKEN:
		p.advance()
		return p.maybeOptional(types.String)

	case tokens.TYPE_VOID_TOKEN:
		p.advance()
		return types.Void

	case tokens.FN_TOKEN:
		return p.parseFunctionType()

	case tokens.IDENTIFIER_TOKEN:
		name := p.advance().Value
		return p.maybeOptional(p.registry.Class(name))

	default:
		p.errorf("expected type name")
		return nil
	}
}

// parseFunctionType: fn(T1, T2) -> R
func (p *Parser) parseFunctionType() types.Type {
	p.expect(tokens.FN_TOKEN)
	p.expect(tokens.OPEN_PAREN)

	var params []types.Type
	if !p.check(tokens.CLOSE_PAREN) {
		for {
			params = append(params, p.parseType())
			if !p.match(tokens.COMMA_TOKEN) {
				break
			}
		}
	}
	p.expect(tokens.CLOSE_PAREN)

	var ret types.Type = types.Void
	if p.match(tokens.ARROW_TOKEN) {
		ret = p.parseType()
	}

	return types.NewFunction(ret, params)
}

func (p *Parser) maybeOptional(t types.Type) types.Type {
	if p.match(tokens.QUESTION_TOKEN) {
		return types.NewOptional(t)
	}
	return t
}
