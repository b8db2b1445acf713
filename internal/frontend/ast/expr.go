package ast

import (
	"github.com/flyfishxu/aurora/internal/source"
	"github.com/flyfishxu/aurora/internal/types"
)

// BinaryOp enumerates binary operators.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLess
	OpGreater
	OpLessEq
	OpGreaterEq
	OpEqual
	OpNotEqual
	OpAnd
	OpOr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShiftLeft
	OpShiftRight
	OpNullCoalesce
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpLess:
		return "<"
	case OpGreater:
		return ">"
	case OpLessEq:
		return "<="
	case OpGreaterEq:
		return ">="
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	case OpBitAnd:
		return "&"
	case OpBitOr:
		return "|"
	case OpBitXor:
		return "^"
	case OpShiftLeft:
		return "<<"
	case OpShiftRight:
		return ">>"
	case OpNullCoalesce:
		return "??"
	default:
		return "?"
	}
}

// UnaryOp enumerates unary operators.
type UnaryOp int

const (
	OpNot UnaryOp = iota // !x
	OpNeg                // -x
	OpBitNot             // ~x
)

// IntLit is an integer literal (e.g. 42)
type IntLit struct {
	Value int64
	source.Location
}

func (e *IntLit) INode()                {}
func (e *IntLit) Expr()                 {}
func (e *IntLit) Loc() *source.Location { return &e.Location }
func (e *IntLit) Type() types.Type      { return types.Int }

// DoubleLit is a floating point literal (e.g. 3.14)
type DoubleLit struct {
	Value float64
	source.Location
}

func (e *DoubleLit) INode()                {}
func (e *DoubleLit) Expr()                 {}
func (e *DoubleLit) Loc() *source.Location { return &e.Location }
func (e *DoubleLit) Type() types.Type      { return types.Double }

// BoolLit is true or false
type BoolLit struct {
	Value bool
	source.Location
}

func (e *BoolLit) INode()                {}
func (e *BoolLit) Expr()                 {}
func (e *BoolLit) Loc() *source.Location { return &e.Location }
func (e *BoolLit) Type() types.Type      { return types.Bool }

// StringLit is a string literal with escapes already decoded
type StringLit struct {
	Value string
	source.Location
}

func (e *StringLit) INode()                {}
func (e *StringLit) Expr()                 {}
func (e *StringLit) Loc() *source.Location { return &e.Location }
func (e *StringLit) Type() types.Type      { return types.String }

// NullLit is the null literal. Its type starts as void? and is
// resolved later from the usage context (return, var init, assignment
// RHS, or argument slot).
type NullLit struct {
	Resolved types.Type
	source.Location
}

func NewNullLit(loc source.Location) *NullLit {
	return &NullLit{
		Resolved: types.NewOptional(types.Void),
		Location: loc,
	}
}

func (e *NullLit) INode()                {}
func (e *NullLit) Expr()                 {}
func (e *NullLit) Loc() *source.Location { return &e.Location }
func (e *NullLit) Type() types.Type      { return e.Resolved }

// SetResolvedType narrows the null to its context type.
func (e *NullLit) SetResolvedType(t types.Type) {
	if t != nil {
		e.Resolved = t
	}
}

// VarExpr is a variable reference. VarType is the parse-time view
// from the local symbol map; the code generator re-resolves it from
// its own variable registry at emission.
type VarExpr struct {
	Name    string
	VarType types.Type
	source.Location
}

func (e *VarExpr) INode()                {}
func (e *VarExpr) Expr()                 {}
func (e *VarExpr) Loc() *source.Location { return &e.Location }
func (e *VarExpr) Type() types.Type      { return e.VarType }

// BinaryExpr is a binary operation
type BinaryExpr struct {
	Op    BinaryOp
	Left  Expression
	Right Expression
	source.Location
}

func (e *BinaryExpr) INode()                {}
func (e *BinaryExpr) Expr()                 {}
func (e *BinaryExpr) Loc() *source.Location { return &e.Location }

func (e *BinaryExpr) Type() types.Type {
	switch e.Op {
	case OpLess, OpGreater, OpLessEq, OpGreaterEq, OpEqual, OpNotEqual, OpAnd, OpOr:
		return types.Bool
	case OpNullCoalesce:
		if opt, ok := e.Left.Type().(*types.Optional); ok {
			return opt.Inner
		}
		return e.Right.Type()
	default:
		lt, rt := e.Left.Type(), e.Right.Type()
		if lt != nil && lt.Kind() == types.KindDouble {
			return types.Double
		}
		if rt != nil && rt.Kind() == types.KindDouble {
			return types.Double
		}
		return lt
	}
}

// UnaryExpr is a unary operation
type UnaryExpr struct {
	Op      UnaryOp
	Operand Expression
	source.Location
}

func (e *UnaryExpr) INode()                {}
func (e *UnaryExpr) Expr()                 {}
func (e *UnaryExpr) Loc() *source.Location { return &e.Location }

func (e *UnaryExpr) Type() types.Type {
	if e.Op == OpNot {
		return types.Bool
	}
	return e.Operand.Type()
}

// CallExpr is a free function call
type CallExpr struct {
	Callee   string
	Args     []Expression
	RetType  types.Type
	source.Location
}

func (e *CallExpr) INode()                {}
func (e *CallExpr) Expr()                 {}
func (e *CallExpr) Loc() *source.Location { return &e.Location }
func (e *CallExpr) Type() types.Type      { return e.RetType }

// MemberAccessExpr is obj.field
type MemberAccessExpr struct {
	Object     Expression
	Member     string
	MemberType types.Type
	source.Location
}

func (e *MemberAccessExpr) INode()                {}
func (e *MemberAccessExpr) Expr()                 {}
func (e *MemberAccessExpr) Loc() *source.Location { return &e.Location }

func (e *MemberAccessExpr) Type() types.Type {
	if decl := receiverClassDecl(e.Object); decl != nil {
		if field := decl.FindField(e.Member); field != nil {
			return field.FieldType
		}
	}
	return e.MemberType
}

// MemberCallExpr is obj.method(args). The return type cached at parse
// time may be a fallback; Type() refines it against the class
// declaration once the registry back-pointer is set.
type MemberCallExpr struct {
	Object  Expression
	Method  string
	Args    []Expression
	RetType types.Type
	source.Location
}

func (e *MemberCallExpr) INode()                {}
func (e *MemberCallExpr) Expr()                 {}
func (e *MemberCallExpr) Loc() *source.Location { return &e.Location }

func (e *MemberCallExpr) Type() types.Type {
	if decl := receiverClassDecl(e.Object); decl != nil {
		if method := decl.FindMethod(e.Method); method != nil && method.Return != nil {
			e.RetType = method.Return
			return e.RetType
		}
	}
	return e.RetType
}

// receiverClassDecl walks an object expression to its class
// declaration, if the class type has been linked.
func receiverClassDecl(obj Expression) *ClassDecl {
	if obj == nil {
		return nil
	}
	ct, ok := obj.Type().(*types.Class)
	if !ok {
		if newExpr, isNew := obj.(*NewExpr); isNew {
			ct, ok = newExpr.ClassType.(*types.Class)
		}
		if !ok {
			return nil
		}
	}
	decl, _ := ct.Decl.(*ClassDecl)
	return decl
}

// NewExpr constructs a class instance: ClassName(args)
type NewExpr struct {
	ClassName string
	Args      []Expression
	ClassType types.Type
	source.Location
}

func (e *NewExpr) INode()                {}
func (e *NewExpr) Expr()                 {}
func (e *NewExpr) Loc() *source.Location { return &e.Location }
func (e *NewExpr) Type() types.Type      { return e.ClassType }

// ThisExpr refers to the receiver inside a method
type ThisExpr struct {
	ThisType types.Type
	source.Location
}

func (e *ThisExpr) INode()                {}
func (e *ThisExpr) Expr()                 {}
func (e *ThisExpr) Loc() *source.Location { return &e.Location }
func (e *ThisExpr) Type() types.Type      { return e.ThisType }

// ArrayLitExpr is an array literal [a, b, c]
type ArrayLitExpr struct {
	Elements  []Expression
	ArrayType types.Type
	source.Location
}

func (e *ArrayLitExpr) INode()                {}
func (e *ArrayLitExpr) Expr()                 {}
func (e *ArrayLitExpr) Loc() *source.Location { return &e.Location }
func (e *ArrayLitExpr) Type() types.Type      { return e.ArrayType }

// ArrayIndexExpr is arr[idx]
type ArrayIndexExpr struct {
	Array Expression
	Index Expression
	source.Location
}

func (e *ArrayIndexExpr) INode()                {}
func (e *ArrayIndexExpr) Expr()                 {}
func (e *ArrayIndexExpr) Loc() *source.Location { return &e.Location }

func (e *ArrayIndexExpr) Type() types.Type {
	if at, ok := e.Array.Type().(*types.Array); ok {
		return at.Elem
	}
	return types.Int
}

// TernaryExpr is cond ? a : b
type TernaryExpr struct {
	Cond  Expression
	True  Expression
	False Expression
	source.Location
}

func (e *TernaryExpr) INode()                {}
func (e *TernaryExpr) Expr()                 {}
func (e *TernaryExpr) Loc() *source.Location { return &e.Location }
func (e *TernaryExpr) Type() types.Type      { return e.True.Type() }

// NullCheckExpr is the postfix x? test, yielding a bool
type NullCheckExpr struct {
	Operand Expression
	source.Location
}

func (e *NullCheckExpr) INode()                {}
func (e *NullCheckExpr) Expr()                 {}
func (e *NullCheckExpr) Loc() *source.Location { return &e.Location }
func (e *NullCheckExpr) Type() types.Type      { return types.Bool }

// SafeNavExpr is obj?.member
type SafeNavExpr struct {
	Object Expression
	Member string
	source.Location
}

func (e *SafeNavExpr) INode()                {}
func (e *SafeNavExpr) Expr()                 {}
func (e *SafeNavExpr) Loc() *source.Location { return &e.Location }

func (e *SafeNavExpr) Type() types.Type {
	if opt, ok := e.Object.Type().(*types.Optional); ok {
		if decl := classDeclOf(opt.Inner); decl != nil {
			if field := decl.FindField(e.Member); field != nil {
				return types.NewOptional(field.FieldType)
			}
		}
	}
	return types.NewOptional(types.Void)
}

// ForceUnwrapExpr is the postfix optional! unwrap
type ForceUnwrapExpr struct {
	Operand Expression
	source.Location
}

func (e *ForceUnwrapExpr) INode()                {}
func (e *ForceUnwrapExpr) Expr()                 {}
func (e *ForceUnwrapExpr) Loc() *source.Location { return &e.Location }

func (e *ForceUnwrapExpr) Type() types.Type {
	if opt, ok := e.Operand.Type().(*types.Optional); ok {
		return opt.Inner
	}
	return e.Operand.Type()
}

func classDeclOf(t types.Type) *ClassDecl {
	ct, ok := t.(*types.Class)
	if !ok {
		return nil
	}
	decl, _ := ct.Decl.(*ClassDecl)
	return decl
}
