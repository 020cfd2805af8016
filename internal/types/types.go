package types

import (
	"strconv"
	"strings"
)

// Type represents a type in the T type system.
type Type interface {
	String() string
	// IsType is a marker method to ensure type safety.
	IsType()
}

// PrimitiveKind represents the kind of a primitive type.
type PrimitiveKind string

const (
	I32  PrimitiveKind = "i32"
	I64  PrimitiveKind = "i64"
	F64  PrimitiveKind = "f64"
	Bool PrimitiveKind = "bool"
	Str  PrimitiveKind = "str"
	Char PrimitiveKind = "char"
	Unit PrimitiveKind = "unit"
)

// Primitive represents a primitive type.
type Primitive struct {
	Kind PrimitiveKind
}

func (p *Primitive) String() string { return string(p.Kind) }
func (p *Primitive) IsType()        {}

// Common primitive instances. Comparison is by pointer for these, so the
// checker must hand out the shared values rather than new ones.
var (
	TypeI32  = &Primitive{Kind: I32}
	TypeI64  = &Primitive{Kind: I64}
	TypeF64  = &Primitive{Kind: F64}
	TypeBool = &Primitive{Kind: Bool}
	TypeStr  = &Primitive{Kind: Str}
	TypeChar = &Primitive{Kind: Char}
	TypeUnit = &Primitive{Kind: Unit}
)

// PrimitiveByName maps a source-level primitive name to its shared instance.
func PrimitiveByName(name string) (Type, bool) {
	switch PrimitiveKind(name) {
	case I32:
		return TypeI32, true
	case I64:
		return TypeI64, true
	case F64:
		return TypeF64, true
	case Bool:
		return TypeBool, true
	case Str:
		return TypeStr, true
	case Char:
		return TypeChar, true
	case Unit:
		return TypeUnit, true
	}
	return nil, false
}

// IsNumeric reports whether t is an arithmetic operand type.
func IsNumeric(t Type) bool {
	p, ok := t.(*Primitive)
	return ok && (p.Kind == I32 || p.Kind == I64 || p.Kind == F64)
}

// Struct represents a struct type instance. Args carries the type arguments
// this instance was created with; Fields are already substituted.
type Struct struct {
	Name   string
	Args   []Type
	Fields []Field
}

type Field struct {
	Name string
	Type Type
}

func (s *Struct) String() string { return appliedName(s.Name, s.Args) }
func (s *Struct) IsType()        {}

// FieldType returns the type of the named field.
func (s *Struct) FieldType(name string) (Type, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// Enum represents an enum type instance, with substituted variant payloads.
type Enum struct {
	Name     string
	Args     []Type
	Variants []Variant
}

type Variant struct {
	Name    string
	Payload []Type // empty for unit variants
}

func (e *Enum) String() string { return appliedName(e.Name, e.Args) }
func (e *Enum) IsType()        {}

// Variant returns the named variant.
func (e *Enum) Variant(name string) (*Variant, bool) {
	for i := range e.Variants {
		if e.Variants[i].Name == name {
			return &e.Variants[i], true
		}
	}
	return nil, false
}

// Function represents a function type. TypeParams is non-empty only on the
// uninstantiated definition type; call sites replace them with fresh
// inference variables.
type Function struct {
	TypeParams []string
	Params     []Type
	Return     Type // never nil; unit when the source omits it
}

func (f *Function) String() string {
	var params []string
	for _, p := range f.Params {
		params = append(params, p.String())
	}
	return "fn(" + strings.Join(params, ", ") + ") -> " + f.Return.String()
}
func (f *Function) IsType() {}

// Array represents a homogeneous array type.
type Array struct {
	Elem Type
}

func (a *Array) String() string { return "[" + a.Elem.String() + "]" }
func (a *Array) IsType()        {}

// Tuple represents a fixed-arity tuple type.
type Tuple struct {
	Elems []Type
}

func (t *Tuple) String() string {
	var elems []string
	for _, e := range t.Elems {
		elems = append(elems, e.String())
	}
	return "(" + strings.Join(elems, ", ") + ")"
}
func (t *Tuple) IsType() {}

// Var is an inference variable. Default, when set, is the type the variable
// collapses to if solving leaves it unbound (integer literals default to i32).
// Numeric restricts the variable to the numeric primitives.
type Var struct {
	ID      int
	Default Type
	Numeric bool
}

func (v *Var) String() string {
	if v.Numeric {
		return "{integer}"
	}
	return "?" + strconv.Itoa(v.ID)
}
func (v *Var) IsType()        {}

// Param is a rigid type parameter inside a generic definition. It unifies
// only with itself.
type Param struct {
	Name string
}

func (p *Param) String() string { return p.Name }
func (p *Param) IsType()        {}

// ErrorType is the poison type assigned to expressions that already produced
// a diagnostic. It unifies with everything so one error does not cascade.
type ErrorType struct{}

func (*ErrorType) String() string { return "<error>" }
func (*ErrorType) IsType()        {}

// TypeError is the shared poison instance.
var TypeError = &ErrorType{}

func appliedName(name string, args []Type) string {
	if len(args) == 0 {
		return name
	}
	var parts []string
	for _, a := range args {
		parts = append(parts, a.String())
	}
	return name + "[" + strings.Join(parts, ", ") + "]"
}
