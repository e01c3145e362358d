package vm

import (
	"fmt"
	"strconv"
)

// Kind is the tag of a Value.
type Kind int

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
	KindFunction
	KindModule
)

var kindNames = [...]string{
	KindUndefined: "undefined",
	KindNull:      "null",
	KindBool:      "bool",
	KindInt:       "int",
	KindFloat:     "float",
	KindString:    "string",
	KindArray:     "array",
	KindObject:    "object",
	KindFunction:  "function",
	KindModule:    "module",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a tagged engine value. The zero Value is undefined.
type Value struct {
	data any
	kind Kind
}

func Undefined() Value { return Value{kind: KindUndefined} }

func Null() Value { return Value{kind: KindNull} }

func Bool(b bool) Value { return Value{kind: KindBool, data: b} }

func Int(i int32) Value { return Value{kind: KindInt, data: i} }

func Float(f float64) Value { return Value{kind: KindFloat, data: f} }

func String(s string) Value { return Value{kind: KindString, data: s} }

// ObjectOf wraps o; a nil object yields null.
func ObjectOf(o *Object) Value {
	if o == nil {
		return Null()
	}
	return Value{kind: KindObject, data: o}
}

// FunctionOf wraps f; a nil function yields null.
func FunctionOf(f *Function) Value {
	if f == nil {
		return Null()
	}
	return Value{kind: KindFunction, data: f}
}

// ArrayOf wraps a; a nil array yields null.
func ArrayOf(a *Array) Value {
	if a == nil {
		return Null()
	}
	return Value{kind: KindArray, data: a}
}

// ModuleOf wraps a module record; a nil record yields null.
func ModuleOf(m *ModuleDef) Value {
	if m == nil {
		return Null()
	}
	return Value{kind: KindModule, data: m}
}

func (v Value) Kind() Kind { return v.kind }

// TypeName returns the engine type name used in error messages.
func (v Value) TypeName() string { return v.kind.String() }

func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNullish reports whether v is undefined or null.
func (v Value) IsNullish() bool { return v.kind == KindUndefined || v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	b, ok := v.data.(bool)
	return b, ok && v.kind == KindBool
}

func (v Value) AsInt() (int32, bool) {
	i, ok := v.data.(int32)
	return i, ok && v.kind == KindInt
}

func (v Value) AsFloat() (float64, bool) {
	f, ok := v.data.(float64)
	return f, ok && v.kind == KindFloat
}

// AsNumber returns ints and floats as float64.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.data.(int32)), true
	case KindFloat:
		return v.data.(float64), true
	}
	return 0, false
}

func (v Value) AsString() (string, bool) {
	s, ok := v.data.(string)
	return s, ok && v.kind == KindString
}

// AsObject returns the object behind an object or function value.
func (v Value) AsObject() (*Object, bool) {
	switch v.kind {
	case KindObject:
		return v.data.(*Object), true
	case KindFunction:
		return &v.data.(*Function).Object, true
	}
	return nil, false
}

func (v Value) AsFunction() (*Function, bool) {
	f, ok := v.data.(*Function)
	return f, ok && v.kind == KindFunction
}

func (v Value) AsArray() (*Array, bool) {
	a, ok := v.data.(*Array)
	return a, ok && v.kind == KindArray
}

func (v Value) AsModule() (*ModuleDef, bool) {
	m, ok := v.data.(*ModuleDef)
	return m, ok && v.kind == KindModule
}

// IsObject reports whether v is an object, including functions.
func (v Value) IsObject() bool {
	return v.kind == KindObject || v.kind == KindFunction
}

// StrictEquals compares primitives by value and everything else by identity.
func (v Value) StrictEquals(other Value) bool {
	if v.kind != other.kind {
		if a, ok := v.AsNumber(); ok {
			if b, ok := other.AsNumber(); ok {
				return a == b
			}
		}
		return false
	}
	return v.data == other.data
}

func (v Value) String() string {
	switch v.kind {
	case KindUndefined, KindNull:
		return v.kind.String()
	case KindBool:
		return strconv.FormatBool(v.data.(bool))
	case KindInt:
		return strconv.FormatInt(int64(v.data.(int32)), 10)
	case KindFloat:
		return strconv.FormatFloat(v.data.(float64), 'g', -1, 64)
	case KindString:
		return v.data.(string)
	case KindArray:
		return v.data.(*Array).String()
	case KindObject:
		return "[object Object]"
	case KindFunction:
		return fmt.Sprintf("function %s()", v.data.(*Function).name)
	case KindModule:
		return "[object Module]"
	}
	return "<invalid>"
}
