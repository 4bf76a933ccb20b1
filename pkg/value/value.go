// Package value implements the data model shared by the compiler and
// the VM: the tagged Value union, the managed-object heap and its
// mark-sweep collector, the open-addressed Table, string interning, and
// the bytecode Chunk (spec.md §3, §4.3). These are kept in one package
// because, as spec.md §1 puts it, they "cannot be designed in isolation
// because their data structures... are shared" — in Go terms, Function
// (an Obj) embeds a *Chunk, and a Chunk's constants pool is []Value, so
// splitting them into importer/imported packages would require a cycle.
package value

import (
	"fmt"
	"math"
	"strconv"
)

// Kind discriminates the four Value variants of spec.md §3.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObj
)

// Value is a uniform discriminated value: nil, boolean, IEEE-754 double,
// or a reference to a managed object. This implementation represents
// the discriminant with a small tag field rather than NaN-boxing the
// double and object-pointer variants together; spec.md §3 explicitly
// permits either representation ("An implementation MAY employ
// NaN-boxing provided externally observable semantics are unchanged"),
// and the tagged-struct form is the one that reads as ordinary Go.
type Value struct {
	kind   Kind
	b      bool
	n      float64
	object Obj
}

// Nil returns the nil Value.
func Nil() Value { return Value{kind: KindNil} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric Value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// FromObj wraps a managed object in a Value.
func FromObj(o Obj) Value { return Value{kind: KindObj, object: o} }

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNil() bool    { return v.kind == KindNil }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsObj() bool    { return v.kind == KindObj }

// AsBool returns the boolean payload; only meaningful when IsBool.
func (v Value) AsBool() bool { return v.b }

// AsNumber returns the numeric payload; only meaningful when IsNumber.
func (v Value) AsNumber() float64 { return v.n }

// AsObj returns the object reference; only meaningful when IsObj.
func (v Value) AsObj() Obj { return v.object }

// IsObjType reports whether v holds an object of the given type.
func (v Value) IsObjType(t ObjType) bool {
	return v.kind == KindObj && v.object != nil && v.object.ObjType() == t
}

// IsString reports whether v holds an ObjString.
func (v Value) IsString() bool { return v.IsObjType(ObjTypeString) }

// AsString returns v's ObjString; only meaningful when IsString.
func (v Value) AsString() *ObjString { return v.object.(*ObjString) }

// IsFalsey reports whether v counts as false for control flow: nil or
// the boolean false. Every other value — including 0 and "" — is
// truthy (spec.md GLOSSARY).
func (v Value) IsFalsey() bool {
	return v.kind == KindNil || (v.kind == KindBool && !v.b)
}

// Equal implements spec.md §3's equality: different variants are always
// unequal; nil equals nil; booleans and numbers compare by content
// (NaN is unequal to itself, per IEEE-754); objects compare by identity,
// which is why equal-content strings must be the same *ObjString
// (interning) for string equality to behave as value equality.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindObj:
		return a.object == b.object
	default:
		return false
	}
}

// String renders v the way OP_PRINT and the REPL echo it.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.n)
	case KindObj:
		return objectString(v.object)
	default:
		return "<invalid value>"
	}
}

func formatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "inf"
	}
	if math.IsInf(n, -1) {
		return "-inf"
	}
	if math.IsNaN(n) {
		return "nan"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func objectString(o Obj) string {
	switch obj := o.(type) {
	case *ObjString:
		return obj.Chars
	case *ObjFunction:
		return obj.String()
	case *ObjNative:
		return fmt.Sprintf("<native fn %s>", obj.Name)
	case *ObjClosure:
		return obj.Function.String()
	case *ObjUpvalue:
		return "<upvalue>"
	case *ObjClass:
		return obj.Name.Chars
	case *ObjInstance:
		return obj.Class.Name.Chars + " instance"
	case *ObjBoundMethod:
		return obj.Method.Function.String()
	default:
		return "<object>"
	}
}
