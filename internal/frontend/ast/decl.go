package ast

import (
	"github.com/flyfishxu/aurora/internal/source"
	"github.com/flyfishxu/aurora/internal/types"
)

// Parameter is a named function or method parameter.
type Parameter struct {
	Name string
	Type types.Type
}

// Prototype is a function signature with a source location.
type Prototype struct {
	Name   string
	Params []Parameter
	Return types.Type
	source.Location
}

// Function pairs a prototype with a body.
type Function struct {
	Proto *Prototype
	Body  []Statement
}

// FieldDecl is a field inside a class.
type FieldDecl struct {
	Name      string
	FieldType types.Type
	Public    bool
	Init      Expression // optional default value
}

// MethodDecl is a method inside a class. Constructors carry the name
// "constructor" and the Constructor flag.
type MethodDecl struct {
	Name        string
	Params      []Parameter
	Return      types.Type
	Body        []Statement
	Public      bool
	Static      bool
	Constructor bool
}

// ClassDecl bundles a class or object declaration.
type ClassDecl struct {
	Name      string
	Fields    []FieldDecl
	Methods   []MethodDecl
	Singleton bool // declared with 'object'
	source.Location
}

// FindField returns the field with the given name, or nil.
func (c *ClassDecl) FindField(name string) *FieldDecl {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i]
		}
	}
	return nil
}

// FieldIndex returns the declaration-order index of a field, or -1.
// The index doubles as the LLVM struct field index.
func (c *ClassDecl) FieldIndex(name string) int {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

// FindMethod returns the first method with the given name, or nil.
func (c *ClassDecl) FindMethod(name string) *MethodDecl {
	for i := range c.Methods {
		if c.Methods[i].Name == name {
			return &c.Methods[i]
		}
	}
	return nil
}

// FindMethodBySig returns the method whose name and parameter types
// match exactly, or nil. Used for constructor overload resolution.
func (c *ClassDecl) FindMethodBySig(name string, paramTypes []types.Type) *MethodDecl {
	for i := range c.Methods {
		m := &c.Methods[i]
		if m.Name != name || len(m.Params) != len(paramTypes) {
			continue
		}
		match := true
		for j := range paramTypes {
			if paramTypes[j] == nil || !m.Params[j].Type.Equals(paramTypes[j]) {
				match = false
				break
			}
		}
		if match {
			return m
		}
	}
	return nil
}

// HasConstructor reports whether any explicit constructor exists.
func (c *ClassDecl) HasConstructor() bool {
	for i := range c.Methods {
		if c.Methods[i].Constructor {
			return true
		}
	}
	return false
}

// GenerateImplicitConstructor synthesizes a constructor with one
// parameter per field, assigning each to this.field, when the class
// has no explicit constructor.
func (c *ClassDecl) GenerateImplicitConstructor(classType types.Type) {
	if c.HasConstructor() {
		return
	}

	params := make([]Parameter, 0, len(c.Fields))
	body := make([]Statement, 0, len(c.Fields))

	for _, field := range c.Fields {
		params = append(params, Parameter{Name: field.Name, Type: field.FieldType})

		target := &MemberAccessExpr{
			Object:     &ThisExpr{ThisType: classType},
			Member:     field.Name,
			MemberType: field.FieldType,
		}
		value := &VarExpr{Name: field.Name, VarType: field.FieldType}
		body = append(body, &AssignStmt{Target: target, Value: value})
	}

	c.Methods = append(c.Methods, MethodDecl{
		Name:        "constructor",
		Params:      params,
		Return:      types.Void,
		Body:        body,
		Public:      true,
		Constructor: true,
	})
}

// ImportDecl is an import of another module.
type ImportDecl struct {
	Path string
	source.Location
}

// PackageDecl names the package of a module.
type PackageDecl struct {
	Name string
	source.Location
}

// Module is the parse result of a single source file.
type Module struct {
	FilePath  string
	Package   *PackageDecl
	Imports   []*ImportDecl
	Functions []*Function
	Classes   []*ClassDecl
}
