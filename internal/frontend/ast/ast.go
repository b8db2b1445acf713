package ast

import (
	"github.com/flyfishxu/aurora/internal/source"
	"github.com/flyfishxu/aurora/internal/types"
)

// Node is the base interface for all AST nodes
type Node interface {
	INode()
	Loc() *source.Location
}

// Expression represents any node that produces a value
type Expression interface {
	Node
	Expr()
	// Type is the statically known type of the expression. Some
	// nodes refine it lazily (null literals, member calls).
	Type() types.Type
}

// Statement represents any node that performs an action
type Statement interface {
	Node
	Stmt()
}
