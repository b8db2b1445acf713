package types

import (
	"fmt"
	"strings"

	lltypes "github.com/llir/llvm/ir/types"
)

// Type is the semantic representation of Aurora types.
//
// Types are immutable after creation. Equality is structural; the
// mangled name is the canonical structural encoding and is used for
// overload-unique symbol names.
type Type interface {
	// String returns the surface-syntax spelling of the type
	String() string

	// LLVM returns the IR representation of a value of this type
	LLVM() lltypes.Type

	// Mangled returns the structural tag used in mangled symbol names
	Mangled() string

	// Equals checks structural equality with another type
	Equals(other Type) bool

	Kind() Kind
}

type Kind int

const (
	KindVoid Kind = iota
	KindInt
	KindDouble
	KindBool
	KindString
	KindOptional
	KindArray
	KindFunction
	KindClass
)

// Primitive singletons. Compound types are constructed fresh and
// compared structurally; interning them is not required for
// correctness.
var (
	Void   Type = &primitive{kind: KindVoid, name: "void", mangle: "v"}
	Int    Type = &primitive{kind: KindInt, name: "int", mangle: "i"}
	Double Type = &primitive{kind: KindDouble, name: "double", mangle: "d"}
	Bool   Type = &primitive{kind: KindBool, name: "bool", mangle: "b"}
	String Type = &primitive{kind: KindString, name: "string", mangle: "s"}
)

type primitive struct {
	kind   Kind
	name   string
	mangle string
}

func (p *primitive) String() string  { return p.name }
func (p *primitive) Mangled() string { return p.mangle }
func (p *primitive) Kind() Kind      { return p.kind }

func (p *primitive) LLVM() lltypes.Type {
	switch p.kind {
	case KindVoid:
		return lltypes.Void
	case KindInt:
		return lltypes.I64
	case KindDouble:
		return lltypes.Double
	case KindBool:
		return lltypes.I1
	case KindString:
		// Strings are runtime-managed pointers
		return lltypes.I8Ptr
	default:
		panic(fmt.Sprintf("unhandled primitive kind %d", p.kind))
	}
}

func (p *primitive) Equals(other Type) bool {
	return other != nil && other.Kind() == p.kind
}

// Optional is a null-safe wrapper around an inner type, lowered to a
// {i1 has_value, T payload} pair. A void payload is widened to i8 so
// the struct stays addressable.
type Optional struct {
	Inner Type
}

func NewOptional(inner Type) *Optional { return &Optional{Inner: inner} }

func (o *Optional) String() string { return o.Inner.String() + "?" }
func (o *Optional) Mangled() string { return "o" + o.Inner.Mangled() }
func (o *Optional) Kind() Kind      { return KindOptional }

func (o *Optional) LLVM() lltypes.Type {
	payload := o.Inner.LLVM()
	if o.Inner.Kind() == KindVoid {
		payload = lltypes.I8
	}
	return lltypes.NewStruct(lltypes.I1, payload)
}

func (o *Optional) Equals(other Type) bool {
	if other == nil || other.Kind() != KindOptional {
		return false
	}
	return o.Inner.Equals(other.(*Optional).Inner)
}

// Array is a dynamically sized array [T], lowered to a {i64 length,
// ptr data} pair whose data is owned by the runtime.
type Array struct {
	Elem Type
}

func NewArray(elem Type) *Array { return &Array{Elem: elem} }

func (a *Array) String() string  { return "[" + a.Elem.String() + "]" }
func (a *Array) Mangled() string { return "a" + a.Elem.Mangled() }
func (a *Array) Kind() Kind      { return KindArray }

func (a *Array) LLVM() lltypes.Type {
	return lltypes.NewStruct(lltypes.I64, lltypes.I8Ptr)
}

func (a *Array) Equals(other Type) bool {
	if other == nil || other.Kind() != KindArray {
		return false
	}
	return a.Elem.Equals(other.(*Array).Elem)
}

// Function is a function type fn(params) -> ret.
type Function struct {
	Return Type
	Params []Type
}

func NewFunction(ret Type, params []Type) *Function {
	return &Function{Return: ret, Params: params}
}

func (f *Function) String() string {
	var sb strings.Builder
	sb.WriteString("fn(")
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(") -> ")
	sb.WriteString(f.Return.String())
	return sb.String()
}

func (f *Function) Mangled() string {
	var sb strings.Builder
	sb.WriteString("f")
	for _, p := range f.Params {
		sb.WriteString(p.Mangled())
	}
	sb.WriteString("r")
	sb.WriteString(f.Return.Mangled())
	return sb.String()
}

func (f *Function) Kind() Kind { return KindFunction }

func (f *Function) LLVM() lltypes.Type {
	params := make([]lltypes.Type, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.LLVM()
	}
	return lltypes.NewFunc(f.Return.LLVM(), params...)
}

func (f *Function) Equals(other Type) bool {
	o, ok := other.(*Function)
	if !ok {
		return false
	}
	if len(f.Params) != len(o.Params) || !f.Return.Equals(o.Return) {
		return false
	}
	for i := range f.Params {
		if !f.Params[i].Equals(o.Params[i]) {
			return false
		}
	}
	return true
}

// Class is a nominal class type. Instances are opaque pointers; the
// named struct layout is created by the code generator from the class
// declaration's field order. Decl is the back-pointer to the parsed
// declaration (an *ast.ClassDecl), set once at parse time.
type Class struct {
	Name string
	Decl any
}

func (c *Class) String() string  { return c.Name }
func (c *Class) Mangled() string { return "c" + c.Name }
func (c *Class) Kind() Kind      { return KindClass }

func (c *Class) LLVM() lltypes.Type {
	return lltypes.I8Ptr
}

func (c *Class) Equals(other Type) bool {
	o, ok := other.(*Class)
	return ok && o.Name == c.Name
}

// SetDecl records the class declaration back-pointer.
func (c *Class) SetDecl(decl any) { c.Decl = decl }

// HasDecl reports whether the declaration has been linked.
func (c *Class) HasDecl() bool { return c.Decl != nil }

// IsOptional reports whether t is an optional type.
func IsOptional(t Type) bool { return t != nil && t.Kind() == KindOptional }

// IsNumeric reports whether t is int or double.
func IsNumeric(t Type) bool {
	return t != nil && (t.Kind() == KindInt || t.Kind() == KindDouble)
}

// IsReference reports whether values of t are runtime heap pointers
// subject to retain/release.
func IsReference(t Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case KindString, KindClass:
		return true
	default:
		return false
	}
}
